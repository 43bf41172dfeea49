package auth

import (
	"context"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	authContextKey    contextKey = "auth_context"
	accountContextKey contextKey = "session_account"
)

// ContextWithAuth adds an API-key AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves AuthContext from the context.
// Returns nil if not present.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// AccountIDFromContext returns the account behind the API key or the session,
// or empty string if the request is anonymous.
func AccountIDFromContext(ctx context.Context) string {
	if auth := AuthFromContext(ctx); auth != nil {
		return auth.AccountID
	}
	if acct := AccountFromContext(ctx); acct != nil {
		return acct.ID
	}
	return ""
}

// ContextWithAccount adds the session account to the context.
func ContextWithAccount(ctx context.Context, acct *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acct)
}

// AccountFromContext retrieves the session account from the context.
func AccountFromContext(ctx context.Context) *model.Account {
	acct, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok {
		return nil
	}
	return acct
}
