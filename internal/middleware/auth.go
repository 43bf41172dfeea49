package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

const (
	// DefaultMinAuthDuration is the minimum time spent on a failed API key
	// check to prevent timing attacks.
	DefaultMinAuthDuration = 200 * time.Millisecond

	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "yuvi_session"
)

const sessionTokenKey contextKey = "session_token"

// Authenticator resolves API keys. Implemented by service.Gateway.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AuthContext, error)
}

// SessionResolver resolves session tokens. Implemented by
// service.IdentityService.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*model.Account, error)
}

// APIKeyConfig holds configuration for the API key middleware.
type APIKeyConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	// MinDuration pads failed attempts. Zero selects DefaultMinAuthDuration.
	MinDuration time.Duration
}

// APIKey returns a middleware that authenticates ingestion requests and
// injects the auth context into the request.
func APIKey(cfg APIKeyConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = DefaultMinAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			fail := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if elapsed := time.Since(start); elapsed < minDuration {
					time.Sleep(minDuration - elapsed)
				}
				writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
			}

			key := extractAPIKey(r)
			if key == "" {
				fail("missing_key")
				return
			}

			authCtx, err := cfg.Authenticator.Authenticate(r.Context(), key)
			if err != nil {
				if !errors.Is(err, service.ErrInvalidKey) {
					cfg.Logger.Error("api key lookup failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				fail("invalid_key")
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("key_id", authCtx.KeyID),
				slog.String("key_prefix", authCtx.KeyPrefix),
				slog.String("account_id", authCtx.AccountID),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Sessions SessionResolver
}

// Session returns a middleware that requires a live session and injects
// the account and session token into the request.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
				return
			}

			acct, err := cfg.Sessions.CurrentSession(r.Context(), token)
			if err != nil {
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
				return
			}
			if acct == nil {
				writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
				return
			}

			ctx := auth.ContextWithAccount(r.Context(), acct)
			ctx = context.WithValue(ctx, sessionTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified rejects accounts that have not completed verification.
// Must be applied after Session.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct := auth.AccountFromContext(r.Context())
		if acct == nil {
			writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
			return
		}
		if !acct.Verified {
			writeError(w, http.StatusForbidden, "ACCOUNT_UNVERIFIED", "Verify your email to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionToken extracts the session token from the session cookie or an
// "Authorization: Bearer" header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r)
}

// SessionTokenFromContext returns the token stored by Session.
func SessionTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(sessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	if key := bearerToken(r); key != "" {
		return key
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
