package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/cache"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository/memory"
)

var testHasher = auth.NewHasher(auth.FastParams)

type testEnv struct {
	store    *memory.Store
	recorder *metrics.InMemoryRecorder
	identity *IdentityService
	keys     *APIKeyService
	pastes   *PasteService
	gateway  *Gateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	recorder := metrics.NewInMemory()
	return &testEnv{
		store:    store,
		recorder: recorder,
		identity: NewIdentityService(store, store, IdentityConfig{
			AllowedDomains: []string{"gmail.com"},
			SessionTTL:     time.Hour,
			Hasher:         testHasher,
		}, recorder),
		keys:    NewAPIKeyService(store, testHasher, 2, recorder),
		pastes:  NewPasteService(store, nil, recorder),
		gateway: NewGateway(store, store, GatewayConfig{MaxPastes: 10, Hasher: testHasher}, recorder),
	}
}

// register creates an account and returns its session.
func (e *testEnv) register(t *testing.T, email string) *Session {
	t.Helper()
	sess, err := e.identity.Register(context.Background(), email, "password")
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", email, err)
	}
	return sess
}

// issue creates an API key for the account and returns its plaintext.
func (e *testEnv) issue(t *testing.T, accountID string) *IssuedKey {
	t.Helper()
	issued, err := e.keys.IssueKey(context.Background(), accountID)
	if err != nil {
		t.Fatalf("IssueKey failed: %v", err)
	}
	return issued
}

// fakeCache is an in-memory AuthCache and PasteCache.
type fakeCache struct {
	mu       sync.Mutex
	auth     map[string]*model.AuthContext
	pastes   map[string]*model.Paste
	negative map[string]bool
	views    map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		auth:     make(map[string]*model.AuthContext),
		pastes:   make(map[string]*model.Paste),
		negative: make(map[string]bool),
		views:    make(map[string]int64),
	}
}

func (c *fakeCache) GetAuthContext(_ context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth[key], nil
}

func (c *fakeCache) SetAuthContext(_ context.Context, key string, ac *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth[key] = ac
	return nil
}

func (c *fakeCache) DeleteAuthContext(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.auth, key)
	return nil
}

func (c *fakeCache) GetPaste(_ context.Context, id string) (*model.Paste, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pastes[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

func (c *fakeCache) SetPaste(_ context.Context, p *model.Paste) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.pastes[p.ID] = &cp
	delete(c.negative, p.ID)
	return nil
}

func (c *fakeCache) IsNegativelyCached(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

func (c *fakeCache) SetNegativeCache(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[id] = true
	return nil
}

func (c *fakeCache) ClearNegativeCache(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.negative, id)
	return nil
}

func (c *fakeCache) IncrementViews(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[id]++
	return c.views[id], nil
}

func (c *fakeCache) GetViews(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[id], nil
}
