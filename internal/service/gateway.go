package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

// Paste limits.
const (
	DefaultMaxPastes     = 10
	DefaultMaxPasteBytes = 512 * 1024
	MaxTitleLength       = 200 // Runes
)

// lastUsedTimeout bounds the detached last_used_at update.
const lastUsedTimeout = 5 * time.Second

// PasteInput is the caller-supplied part of a new paste.
type PasteInput struct {
	Title   string
	Content string
	Type    model.PasteType
}

// GatewayConfig configures a Gateway. Zero values select defaults.
type GatewayConfig struct {
	MaxPastes     int
	MaxPasteBytes int
	Hasher        *auth.Hasher
}

// Gateway authenticates API keys and creates pastes on behalf of the key's
// account.
type Gateway struct {
	keys       APIKeyStore
	pastes     PasteStore
	authCache  AuthCache  // optional
	pasteCache PasteCache // optional
	hasher     *auth.Hasher
	maxPastes  int
	maxBytes   int
	metrics    metrics.Recorder
	now        func() time.Time
	newID      func() (string, error)
}

// NewGateway creates a new ingestion gateway.
func NewGateway(keys APIKeyStore, pastes PasteStore, cfg GatewayConfig, recorder metrics.Recorder) *Gateway {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = auth.NewHasher(auth.DefaultParams)
	}
	if cfg.MaxPastes <= 0 {
		cfg.MaxPastes = DefaultMaxPastes
	}
	if cfg.MaxPasteBytes <= 0 {
		cfg.MaxPasteBytes = DefaultMaxPasteBytes
	}
	return &Gateway{
		keys:      keys,
		pastes:    pastes,
		hasher:    cfg.Hasher,
		maxPastes: cfg.MaxPastes,
		maxBytes:  cfg.MaxPasteBytes,
		metrics:   recorder,
		now:       now,
		newID:     GeneratePasteID,
	}
}

// WithAuthCache enables caching of resolved API keys.
func (g *Gateway) WithAuthCache(c AuthCache) *Gateway {
	g.authCache = c
	return g
}

// WithPasteCache warms c with newly created pastes.
func (g *Gateway) WithPasteCache(c PasteCache) *Gateway {
	g.pasteCache = c
	return g
}

// MaxPastes returns the per-account paste cap.
func (g *Gateway) MaxPastes() int {
	return g.maxPastes
}

// MaxPasteBytes returns the maximum content size in bytes.
func (g *Gateway) MaxPasteBytes() int {
	return g.maxBytes
}

// Authenticate resolves a plaintext API key to its active key and account.
func (g *Gateway) Authenticate(ctx context.Context, token string) (*model.AuthContext, error) {
	parsed, err := auth.ParseAPIKey(token)
	if err != nil {
		g.metrics.IncAuthFailure(metrics.AuthAPIKey)
		return nil, ErrInvalidKey
	}

	cacheKey := auth.QuickHash(token)
	if g.authCache != nil {
		if ac, _ := g.authCache.GetAuthContext(ctx, cacheKey); ac != nil {
			// Revocation is not visible to the cache; re-check status.
			key, err := g.keys.GetAPIKeyByID(ctx, ac.KeyID)
			if err == nil && key.IsActive() {
				g.touch(key.ID)
				return ac, nil
			}
			if err != nil && !errors.Is(err, repository.ErrAPIKeyNotFound) {
				return nil, fmt.Errorf("get api key: %w", err)
			}
			_ = g.authCache.DeleteAuthContext(ctx, cacheKey)
			g.metrics.IncAuthFailure(metrics.AuthAPIKey)
			return nil, ErrInvalidKey
		}
	}

	candidates, err := g.keys.GetActiveAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, fmt.Errorf("lookup api keys: %w", err)
	}

	var matched *model.APIKey
	for _, k := range candidates {
		ok, err := g.hasher.Verify(token, k.KeyHash)
		if err != nil {
			continue
		}
		if ok {
			matched = k
			break
		}
	}
	if matched == nil {
		g.metrics.IncAuthFailure(metrics.AuthAPIKey)
		return nil, ErrInvalidKey
	}

	ac := &model.AuthContext{
		KeyID:     matched.ID,
		KeyPrefix: matched.KeyPrefix,
		AccountID: matched.AccountID,
	}
	if g.authCache != nil {
		_ = g.authCache.SetAuthContext(ctx, cacheKey, ac)
	}
	g.touch(matched.ID)
	return ac, nil
}

// CreatePaste authenticates token and stores a paste for its account.
func (g *Gateway) CreatePaste(ctx context.Context, token string, in PasteInput) (*model.Paste, error) {
	ac, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return g.Ingest(ctx, ac, in)
}

// Ingest stores a paste for an already authenticated caller.
func (g *Gateway) Ingest(ctx context.Context, ac *model.AuthContext, in PasteInput) (*model.Paste, error) {
	p, err := g.buildPaste(ac.AccountID, in)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := g.newID()
		if err != nil {
			return nil, fmt.Errorf("generate paste id: %w", err)
		}

		exists, err := g.pastes.PasteExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check paste id: %w", err)
		}
		if exists {
			continue
		}

		p.ID = id
		p.CreatedAt = g.now()
		err = g.pastes.CreatePasteWithLimit(ctx, p, g.maxPastes)
		switch {
		case err == nil:
			g.metrics.IncPasteCreated(string(p.Type))
			if g.pasteCache != nil {
				if err := g.pasteCache.SetPaste(ctx, p); err != nil {
					// A stale not-found marker must not hide the new paste.
					_ = g.pasteCache.ClearNegativeCache(ctx, p.ID)
				}
			}
			return p, nil
		case errors.Is(err, repository.ErrPasteIDExists):
			continue
		case errors.Is(err, repository.ErrPasteLimitReached):
			g.metrics.IncQuotaRejected(metrics.ResourcePaste)
			return nil, ErrPasteQuotaExceeded
		case errors.Is(err, repository.ErrAccountNotFound):
			return nil, ErrInvalidKey
		default:
			return nil, fmt.Errorf("create paste: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to generate unique paste id after %d attempts", maxIDAttempts)
}

// buildPaste validates in and fills defaults. ID and CreatedAt are left
// for the caller.
func (g *Gateway) buildPaste(accountID string, in PasteInput) (*model.Paste, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrEmptyContent
	}
	if len(in.Content) > g.maxBytes {
		return nil, ErrContentTooLarge
	}

	pasteType := in.Type
	if pasteType == "" {
		pasteType = model.PasteTypeText
	}
	if !pasteType.IsValid() {
		return nil, ErrInvalidPasteType
	}

	// Titles are stored verbatim; only a blank one falls back to the default.
	title := in.Title
	if strings.TrimSpace(title) == "" {
		title = model.DefaultPasteTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	return &model.Paste{
		Title:     title,
		Content:   in.Content,
		Type:      pasteType,
		Size:      len(in.Content),
		AccountID: accountID,
	}, nil
}

// touch records key usage without blocking the request.
func (g *Gateway) touch(keyID string) {
	at := g.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lastUsedTimeout)
		defer cancel()
		_ = g.keys.UpdateAPIKeyLastUsed(ctx, keyID, at)
	}()
}
