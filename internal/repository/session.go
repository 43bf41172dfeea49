package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

// CreateSession stores a session keyed by its token digest.
func (r *Repository) CreateSession(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (token_hash, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, s.TokenHash, s.AccountID, s.CreatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves an unexpired session by token digest.
func (r *Repository) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	query := `
		SELECT token_hash, account_id, created_at, expires_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > $2
	`

	var s model.Session
	err := r.pool.QueryRow(ctx, query, tokenHash, time.Now()).Scan(
		&s.TokenHash,
		&s.AccountID,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is a no-op.
func (r *Repository) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
