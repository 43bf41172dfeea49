package model

import "time"

// Session binds an opaque token to one account.
// Only a digest of the token is stored; the token itself is returned once.
type Session struct {
	TokenHash string    `json:"token_hash"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
