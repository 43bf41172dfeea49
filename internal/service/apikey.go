package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

// DefaultMaxActiveKeys is the per-account active API key cap.
const DefaultMaxActiveKeys = 2

// IssuedKey is a freshly issued API key. Token is the plaintext key and is
// never retrievable again.
type IssuedKey struct {
	Key   *model.APIKey
	Token string
}

// APIKeyService manages an account's API keys.
type APIKeyService struct {
	keys      APIKeyStore
	hasher    *auth.Hasher
	maxActive int
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewAPIKeyService creates a new API key service. maxActive <= 0 selects
// DefaultMaxActiveKeys; hasher nil selects auth.DefaultParams.
func NewAPIKeyService(keys APIKeyStore, hasher *auth.Hasher, maxActive int, recorder metrics.Recorder) *APIKeyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveKeys
	}
	return &APIKeyService{
		keys:      keys,
		hasher:    hasher,
		maxActive: maxActive,
		metrics:   recorder,
		now:       now,
	}
}

// MaxActive returns the active key cap.
func (s *APIKeyService) MaxActive() int {
	return s.maxActive
}

// ListKeys returns every key of the account, revoked ones included, in
// creation order.
func (s *APIKeyService) ListKeys(ctx context.Context, accountID string) ([]*model.APIKey, error) {
	keys, err := s.keys.ListAPIKeysByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// IssueKey creates a new active key for the account.
func (s *APIKeyService) IssueKey(ctx context.Context, accountID string) (*IssuedKey, error) {
	// Fail fast before paying for the hash; the store re-checks atomically.
	existing, err := s.keys.ListAPIKeysByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	if countActive(existing) >= s.maxActive {
		s.metrics.IncQuotaRejected(metrics.ResourceAPIKey)
		return nil, ErrKeyQuotaExceeded
	}

	generated, err := auth.GenerateAPIKey(s.hasher)
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	key := &model.APIKey{
		ID:        ulid.Make().String(),
		AccountID: accountID,
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		Status:    model.KeyStatusActive,
		CreatedAt: s.now(),
	}
	if err := s.keys.CreateAPIKeyWithLimit(ctx, key, s.maxActive); err != nil {
		switch {
		case errors.Is(err, repository.ErrKeyLimitReached):
			s.metrics.IncQuotaRejected(metrics.ResourceAPIKey)
			return nil, ErrKeyQuotaExceeded
		case errors.Is(err, repository.ErrAccountNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create api key: %w", err)
	}
	s.metrics.IncAPIKeyIssued()

	return &IssuedKey{Key: key, Token: generated.Plaintext}, nil
}

// RevokeKey revokes one of the account's keys. Unknown keys, keys owned by
// another account and already revoked keys are left untouched.
func (s *APIKeyService) RevokeKey(ctx context.Context, accountID, keyID string) error {
	revoked, err := s.keys.RevokeAPIKey(ctx, accountID, keyID, s.now())
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if revoked {
		s.metrics.IncAPIKeyRevoked()
	}
	return nil
}

func countActive(keys []*model.APIKey) int {
	n := 0
	for _, k := range keys {
		if k.IsActive() {
			n++
		}
	}
	return n
}
