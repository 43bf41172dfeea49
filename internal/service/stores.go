package service

import (
	"context"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

// AccountStore persists accounts. Implemented by repository.Repository and
// memory.Store.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	MarkAccountVerified(ctx context.Context, id string, at time.Time) (*model.Account, error)
}

// SessionStore persists sessions keyed by token digest.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// APIKeyStore persists API keys. CreateAPIKeyWithLimit must check the
// active-key count and insert atomically.
type APIKeyStore interface {
	CreateAPIKeyWithLimit(ctx context.Context, key *model.APIKey, maxActive int) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	GetActiveAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	ListAPIKeysByAccount(ctx context.Context, accountID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, accountID, keyID string, at time.Time) (bool, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string, at time.Time) error
}

// PasteStore persists pastes. CreatePasteWithLimit must check the
// per-account count and insert atomically.
type PasteStore interface {
	CreatePasteWithLimit(ctx context.Context, p *model.Paste, maxPastes int) error
	GetPasteByID(ctx context.Context, id string) (*model.Paste, error)
	PasteExists(ctx context.Context, id string) (bool, error)
	ListPastesByAccount(ctx context.Context, accountID string) ([]*model.Paste, error)
}

// AuthCache caches resolved API-key auth contexts. Implemented by cache.Cache.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
	DeleteAuthContext(ctx context.Context, cacheKey string) error
}

// PasteCache is a read-through paste cache with view counters.
// GetPaste returns cache.ErrCacheMiss on a miss. Implemented by cache.Cache.
type PasteCache interface {
	GetPaste(ctx context.Context, id string) (*model.Paste, error)
	SetPaste(ctx context.Context, p *model.Paste) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
	ClearNegativeCache(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	GetViews(ctx context.Context, id string) (int64, error)
}

// Store is the union of every persistence interface.
type Store interface {
	AccountStore
	SessionStore
	APIKeyStore
	PasteStore
}

// now returns the current time at the precision PostgreSQL stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
