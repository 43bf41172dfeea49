//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/testutil"
)

// ============================================================================
// Account Repository Integration Tests
// ============================================================================

func TestIntegrationAccountRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	acct := testutil.NewTestAccount(t)
	if err := repo.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	byEmail, err := repo.GetAccountByEmail(ctx, acct.Email)
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if byEmail.ID != acct.ID || byEmail.Verified {
		t.Errorf("unexpected account: %+v", byEmail)
	}

	if err := repo.CreateAccount(ctx, &model.Account{
		ID: "other", Email: acct.Email, PasswordHash: "x", CreatedAt: time.Now(),
	}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want ErrEmailExists", err)
	}

	if _, err := repo.GetAccountByID(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("GetAccountByID(missing) = %v, want ErrAccountNotFound", err)
	}
}

func TestIntegrationAccountRepository_MarkVerifiedOnce(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	acct := mustCreateAccount(t, ctx, repo)
	first := time.Now().UTC().Truncate(time.Microsecond)

	verified, err := repo.MarkAccountVerified(ctx, acct.ID, first)
	if err != nil {
		t.Fatalf("MarkAccountVerified failed: %v", err)
	}
	if !verified.Verified || verified.VerifiedAt == nil || !verified.VerifiedAt.Equal(first) {
		t.Fatalf("unexpected verified account: %+v", verified)
	}

	again, err := repo.MarkAccountVerified(ctx, acct.ID, first.Add(time.Hour))
	if err != nil {
		t.Fatalf("second MarkAccountVerified failed: %v", err)
	}
	if !again.VerifiedAt.Equal(first) {
		t.Errorf("verified_at changed on second verify: %v", again.VerifiedAt)
	}
}

// ============================================================================
// API Key Repository Integration Tests
// ============================================================================

func TestIntegrationAPIKeyRepository_LimitAndRevoke(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)
	acct := mustCreateAccount(t, ctx, repo)

	k1 := testutil.NewTestAPIKey(t, acct.ID)
	k2 := testutil.NewTestAPIKey(t, acct.ID)
	k3 := testutil.NewTestAPIKey(t, acct.ID)

	for _, k := range []*model.APIKey{k1, k2} {
		if err := repo.CreateAPIKeyWithLimit(ctx, k, 2); err != nil {
			t.Fatalf("CreateAPIKeyWithLimit failed: %v", err)
		}
	}
	if err := repo.CreateAPIKeyWithLimit(ctx, k3, 2); !errors.Is(err, ErrKeyLimitReached) {
		t.Fatalf("third key error = %v, want ErrKeyLimitReached", err)
	}

	changed, err := repo.RevokeAPIKey(ctx, acct.ID, k1.ID, time.Now())
	if err != nil || !changed {
		t.Fatalf("RevokeAPIKey = %v, %v; want true, nil", changed, err)
	}
	changed, err = repo.RevokeAPIKey(ctx, acct.ID, k1.ID, time.Now())
	if err != nil || changed {
		t.Fatalf("second RevokeAPIKey = %v, %v; want false, nil", changed, err)
	}
	changed, err = repo.RevokeAPIKey(ctx, "someone-else", k2.ID, time.Now())
	if err != nil || changed {
		t.Fatalf("foreign RevokeAPIKey = %v, %v; want false, nil", changed, err)
	}

	if err := repo.CreateAPIKeyWithLimit(ctx, k3, 2); err != nil {
		t.Fatalf("key after revoke failed: %v", err)
	}

	keys, err := repo.ListAPIKeysByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("ListAPIKeysByAccount failed: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("len(keys) = %d, want 3", len(keys))
	}
	wantOrder := []string{k1.ID, k2.ID, k3.ID}
	for i, k := range keys {
		if k.ID != wantOrder[i] {
			t.Errorf("keys[%d] = %s, want %s", i, k.ID, wantOrder[i])
		}
	}
	if keys[0].Status != model.KeyStatusRevoked || keys[0].RevokedAt == nil {
		t.Errorf("first key should be revoked: %+v", keys[0])
	}

	active, err := repo.GetActiveAPIKeysByPrefix(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetActiveAPIKeysByPrefix failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active candidates = %d, want 2", len(active))
	}
}

func TestIntegrationAPIKeyRepository_ConcurrentLimit(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)
	acct := mustCreateAccount(t, ctx, repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.CreateAPIKeyWithLimit(ctx, testutil.NewTestAPIKey(t, acct.ID), 2); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 2 {
		t.Errorf("created %d keys concurrently, want 2", created)
	}
}

func TestIntegrationAPIKeyRepository_UnknownAccount(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	err := repo.CreateAPIKeyWithLimit(ctx, testutil.NewTestAPIKey(t, "ghost"), 2)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

// ============================================================================
// Paste Repository Integration Tests
// ============================================================================

func TestIntegrationPasteRepository_RoundTripAndOrder(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)
	acct := mustCreateAccount(t, ctx, repo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	older := testutil.NewTestPaste(t, acct.ID, "OLD001")
	older.CreatedAt = base.Add(-time.Minute)
	tieA := testutil.NewTestPaste(t, acct.ID, "TIE00A")
	tieA.CreatedAt = base
	tieB := testutil.NewTestPaste(t, acct.ID, "TIE00B")
	tieB.CreatedAt = base

	for _, p := range []*model.Paste{older, tieA, tieB} {
		if err := repo.CreatePasteWithLimit(ctx, p, 10); err != nil {
			t.Fatalf("CreatePasteWithLimit(%s) failed: %v", p.ID, err)
		}
	}

	got, err := repo.GetPasteByID(ctx, "TIE00A")
	if err != nil {
		t.Fatalf("GetPasteByID failed: %v", err)
	}
	if got.Title != tieA.Title || got.Content != tieA.Content || got.Type != tieA.Type ||
		got.Size != tieA.Size || got.AccountID != tieA.AccountID || !got.CreatedAt.Equal(tieA.CreatedAt) {
		t.Errorf("round trip = %+v, want %+v", got, tieA)
	}

	list, err := repo.ListPastesByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("ListPastesByAccount failed: %v", err)
	}
	wantOrder := []string{"TIE00A", "TIE00B", "OLD001"}
	for i, p := range list {
		if p.ID != wantOrder[i] {
			t.Errorf("list[%d] = %s, want %s", i, p.ID, wantOrder[i])
		}
	}

	if _, err := repo.GetPasteByID(ctx, "NOPE00"); !errors.Is(err, ErrPasteNotFound) {
		t.Errorf("GetPasteByID(missing) = %v, want ErrPasteNotFound", err)
	}
	exists, err := repo.PasteExists(ctx, "OLD001")
	if err != nil || !exists {
		t.Errorf("PasteExists(OLD001) = %v, %v; want true, nil", exists, err)
	}
}

func TestIntegrationPasteRepository_LimitAndDuplicateID(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)
	acct := mustCreateAccount(t, ctx, repo)

	for i := 0; i < 3; i++ {
		if err := repo.CreatePasteWithLimit(ctx, testutil.NewTestPaste(t, acct.ID, fmt.Sprintf("LIM00%d", i)), 3); err != nil {
			t.Fatalf("CreatePasteWithLimit(%d) failed: %v", i, err)
		}
	}

	err := repo.CreatePasteWithLimit(ctx, testutil.NewTestPaste(t, acct.ID, "LIM009"), 3)
	if !errors.Is(err, ErrPasteLimitReached) {
		t.Fatalf("fourth paste error = %v, want ErrPasteLimitReached", err)
	}

	other := mustCreateAccount(t, ctx, repo)
	err = repo.CreatePasteWithLimit(ctx, testutil.NewTestPaste(t, other.ID, "LIM000"), 3)
	if !errors.Is(err, ErrPasteIDExists) {
		t.Fatalf("duplicate id error = %v, want ErrPasteIDExists", err)
	}
}

// ============================================================================
// Session Repository Integration Tests
// ============================================================================

func TestIntegrationSessionRepository_Lifecycle(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)
	acct := mustCreateAccount(t, ctx, repo)
	now := time.Now().UTC()

	live := &model.Session{TokenHash: fmt.Sprintf("%064d", 1), AccountID: acct.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &model.Session{TokenHash: fmt.Sprintf("%064d", 2), AccountID: acct.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Hour)}

	for _, s := range []*model.Session{live, expired} {
		if err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	got, err := repo.GetSession(ctx, live.TokenHash)
	if err != nil || got.AccountID != acct.ID {
		t.Fatalf("GetSession(live) = %+v, %v", got, err)
	}
	if _, err := repo.GetSession(ctx, expired.TokenHash); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession(expired) = %v, want ErrSessionNotFound", err)
	}

	if err := repo.DeleteSession(ctx, live.TokenHash); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if err := repo.DeleteSession(ctx, live.TokenHash); err != nil {
		t.Fatalf("second DeleteSession should be a no-op: %v", err)
	}
	if _, err := repo.GetSession(ctx, live.TokenHash); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession(deleted) = %v, want ErrSessionNotFound", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func mustCreateAccount(t *testing.T, ctx context.Context, repo *Repository) *model.Account {
	t.Helper()
	acct := testutil.NewTestAccount(t)
	if err := repo.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return acct
}

func newRepositoryTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}
