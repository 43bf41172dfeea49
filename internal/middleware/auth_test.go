package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

const testKey = "yuvi_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAuthenticator struct {
	err error
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.AuthContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != testKey {
		return nil, service.ErrInvalidKey
	}
	return &model.AuthContext{KeyID: "key-1", KeyPrefix: "abc123", AccountID: "acct-1"}, nil
}

type fakeSessions map[string]*model.Account

func (f fakeSessions) CurrentSession(_ context.Context, token string) (*model.Account, error) {
	return f[token], nil
}

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, auth.AccountIDFromContext(r.Context()))
	})
}

func TestAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"bearer", "Authorization", "Bearer " + testKey, http.StatusOK},
		{"x-api-key", "X-API-Key", testKey, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Authorization", "Basic " + testKey, http.StatusUnauthorized},
		{"unknown key", "X-API-Key", "yuvi_000000_00000000000000000000000000000000", http.StatusUnauthorized},
	}

	mw := APIKey(APIKeyConfig{
		Logger:        discardLogger,
		Authenticator: fakeAuthenticator{},
		MinDuration:   time.Millisecond,
	})

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/paste", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			mw(echoAccount()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != "acct-1" {
				t.Errorf("account = %q, want acct-1", rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"INVALID_API_KEY"`) {
				t.Errorf("body = %s, want INVALID_API_KEY", rec.Body.String())
			}
		})
	}
}

func TestAPIKey_StoreErrorIsUnauthorized(t *testing.T) {
	t.Parallel()

	mw := APIKey(APIKeyConfig{
		Logger:        discardLogger,
		Authenticator: fakeAuthenticator{err: errors.New("db down")},
		MinDuration:   time.Millisecond,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/paste", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	mw(echoAccount()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKey_PadsFailures(t *testing.T) {
	t.Parallel()

	const minDuration = 50 * time.Millisecond
	mw := APIKey(APIKeyConfig{
		Logger:        discardLogger,
		Authenticator: fakeAuthenticator{},
		MinDuration:   minDuration,
	})

	start := time.Now()
	rec := httptest.NewRecorder()
	mw(echoAccount()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/paste", nil))

	if elapsed := time.Since(start); elapsed < minDuration {
		t.Errorf("failed auth took %v, want at least %v", elapsed, minDuration)
	}
}

func TestSession(t *testing.T) {
	t.Parallel()

	sessions := fakeSessions{
		"tok-verified":   {ID: "acct-v", Verified: true},
		"tok-unverified": {ID: "acct-u"},
	}
	mw := Session(SessionConfig{Logger: discardLogger, Sessions: sessions})

	tests := []struct {
		name       string
		cookie     string
		bearer     string
		verified   bool
		wantStatus int
		wantCode   string
	}{
		{name: "cookie", cookie: "tok-verified", wantStatus: http.StatusOK},
		{name: "bearer", bearer: "tok-verified", wantStatus: http.StatusOK},
		{name: "no token", wantStatus: http.StatusUnauthorized, wantCode: "NO_SESSION"},
		{name: "unknown token", cookie: "nope", wantStatus: http.StatusUnauthorized, wantCode: "NO_SESSION"},
		{name: "verified required", cookie: "tok-verified", verified: true, wantStatus: http.StatusOK},
		{name: "unverified rejected", cookie: "tok-unverified", verified: true, wantStatus: http.StatusForbidden, wantCode: "ACCOUNT_UNVERIFIED"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if SessionTokenFromContext(r.Context()) == "" {
					t.Error("session token missing from context")
				}
				w.WriteHeader(http.StatusOK)
			})
			if tt.verified {
				inner = RequireVerified(inner)
			}

			req := httptest.NewRequest(http.MethodGet, "/dashboard/keys", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			mw(inner).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" && !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body.String(), tt.wantCode)
			}
		})
	}
}
