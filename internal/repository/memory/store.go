// Package memory is an in-memory implementation of the repository stores,
// used for tests and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

// Store keeps every entity in maps guarded by one RWMutex.
// Quota checks hold the write lock across count and insert.
type Store struct {
	mu sync.RWMutex

	accounts        map[string]*model.Account
	accountsByEmail map[string]string
	apiKeys         map[string]*model.APIKey
	pastes          map[string]*model.Paste
	sessions        map[string]*model.Session // key: token hash

	// Per-account ID lists in insertion order.
	keysByAccount   map[string][]string
	pastesByAccount map[string][]string

	now func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		accounts:        make(map[string]*model.Account),
		accountsByEmail: make(map[string]string),
		apiKeys:         make(map[string]*model.APIKey),
		keysByAccount:   make(map[string][]string),
		pastes:          make(map[string]*model.Paste),
		pastesByAccount: make(map[string][]string),
		sessions:        make(map[string]*model.Session),
		now:             time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// ============================================================================
// Accounts
// ============================================================================

func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountsByEmail[acct.Email]; ok {
		return repository.ErrEmailExists
	}
	c := *acct
	s.accounts[acct.ID] = &c
	s.accountsByEmail[acct.Email] = acct.ID
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	c := *acct
	return &c, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountsByEmail[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	c := *s.accounts[id]
	return &c, nil
}

func (s *Store) MarkAccountVerified(ctx context.Context, id string, at time.Time) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	if !acct.Verified {
		acct.Verified = true
		acct.VerifiedAt = &at
	}
	c := *acct
	return &c, nil
}

// ============================================================================
// API keys
// ============================================================================

func (s *Store) CreateAPIKeyWithLimit(ctx context.Context, key *model.APIKey, maxActive int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[key.AccountID]; !ok {
		return repository.ErrAccountNotFound
	}
	if maxActive > 0 {
		active := 0
		for _, id := range s.keysByAccount[key.AccountID] {
			if s.apiKeys[id].IsActive() {
				active++
			}
		}
		if active >= maxActive {
			return repository.ErrKeyLimitReached
		}
	}

	c := *key
	s.apiKeys[key.ID] = &c
	s.keysByAccount[key.AccountID] = append(s.keysByAccount[key.AccountID], key.ID)
	return nil
}

func (s *Store) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	return cloneKey(key), nil
}

func (s *Store) GetActiveAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*model.APIKey, 0)
	for _, key := range s.apiKeys {
		if key.KeyPrefix == prefix && key.IsActive() {
			keys = append(keys, cloneKey(key))
		}
	}
	return keys, nil
}

func (s *Store) ListAPIKeysByAccount(ctx context.Context, accountID string) ([]*model.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.keysByAccount[accountID]
	keys := make([]*model.APIKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cloneKey(s.apiKeys[id]))
	}
	return keys, nil
}

func (s *Store) RevokeAPIKey(ctx context.Context, accountID, keyID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.apiKeys[keyID]
	if !ok || key.AccountID != accountID || !key.IsActive() {
		return false, nil
	}
	key.Status = model.KeyStatusRevoked
	key.RevokedAt = &at
	return true, nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.apiKeys[id]; ok {
		key.LastUsedAt = &at
	}
	return nil
}

func cloneKey(k *model.APIKey) *model.APIKey {
	c := *k
	return &c
}

// ============================================================================
// Pastes
// ============================================================================

func (s *Store) CreatePasteWithLimit(ctx context.Context, p *model.Paste, maxPastes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[p.AccountID]; !ok {
		return repository.ErrAccountNotFound
	}
	if maxPastes > 0 && len(s.pastesByAccount[p.AccountID]) >= maxPastes {
		return repository.ErrPasteLimitReached
	}
	if _, ok := s.pastes[p.ID]; ok {
		return repository.ErrPasteIDExists
	}

	c := *p
	s.pastes[p.ID] = &c
	s.pastesByAccount[p.AccountID] = append(s.pastesByAccount[p.AccountID], p.ID)
	return nil
}

func (s *Store) GetPasteByID(ctx context.Context, id string) (*model.Paste, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pastes[id]
	if !ok {
		return nil, repository.ErrPasteNotFound
	}
	c := *p
	return &c, nil
}

func (s *Store) PasteExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.pastes[id]
	return ok, nil
}

// ListPastesByAccount returns pastes newest first; equal timestamps keep
// insertion order.
func (s *Store) ListPastesByAccount(ctx context.Context, accountID string) ([]*model.Paste, error) {
	s.mu.RLock()
	ids := s.pastesByAccount[accountID]
	pastes := make([]*model.Paste, 0, len(ids))
	for _, id := range ids {
		c := *s.pastes[id]
		pastes = append(pastes, &c)
	}
	s.mu.RUnlock()

	sort.SliceStable(pastes, func(i, j int) bool {
		return pastes[i].CreatedAt.After(pastes[j].CreatedAt)
	})
	return pastes, nil
}

// ============================================================================
// Sessions
// ============================================================================

func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sess
	s.sessions[sess.TokenHash] = &c
	return nil
}

func (s *Store) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[tokenHash]
	s.mu.RUnlock()

	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if sess.IsExpired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, tokenHash)
		s.mu.Unlock()
		return nil, repository.ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, tokenHash)
	return nil
}
