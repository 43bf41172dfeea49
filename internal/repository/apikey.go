package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

const apiKeyColumns = `id, account_id, key_hash, key_prefix, status, revoked_at, last_used_at, created_at`

// CreateAPIKeyWithLimit inserts key unless its account already has
// maxActive active keys. The count and the insert run under the account
// row lock, so concurrent callers cannot exceed the limit.
// A maxActive of zero or less disables the limit.
func (r *Repository) CreateAPIKeyWithLimit(ctx context.Context, key *model.APIKey, maxActive int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAccount(ctx, tx, key.AccountID); err != nil {
		return err
	}

	if maxActive > 0 {
		var active int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM api_keys WHERE account_id = $1 AND status = 'active'`,
			key.AccountID,
		).Scan(&active)
		if err != nil {
			return fmt.Errorf("failed to count active API keys: %w", err)
		}
		if active >= maxActive {
			return ErrKeyLimitReached
		}
	}

	query := `
		INSERT INTO api_keys (id, account_id, key_hash, key_prefix, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, query,
		key.ID,
		key.AccountID,
		key.KeyHash,
		key.KeyPrefix,
		key.Status,
		key.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit API key: %w", err)
	}
	return nil
}

// GetAPIKeyByID retrieves an API key by its ID.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`

	key, err := scanAPIKey(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAPIKeyNotFound
	}
	return key, err
}

// GetActiveAPIKeysByPrefix retrieves all active API keys matching a prefix.
// Used during authentication to find candidate keys for verification.
func (r *Repository) GetActiveAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_prefix = $1 AND status = 'active'`
	return r.queryAPIKeys(ctx, query, prefix)
}

// ListAPIKeysByAccount retrieves all keys of an account in insertion order.
func (r *Repository) ListAPIKeysByAccount(ctx context.Context, accountID string) ([]*model.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE account_id = $1 ORDER BY seq ASC`
	return r.queryAPIKeys(ctx, query, accountID)
}

// RevokeAPIKey marks an active key owned by accountID as revoked.
// It reports whether a key changed state; missing, foreign or already
// revoked keys are not an error.
func (r *Repository) RevokeAPIKey(ctx context.Context, accountID, keyID string, at time.Time) (bool, error) {
	query := `
		UPDATE api_keys
		SET status = 'revoked', revoked_at = $3
		WHERE id = $1 AND account_id = $2 AND status = 'active'
	`

	result, err := r.pool.Exec(ctx, query, keyID, accountID, at)
	if err != nil {
		return false, fmt.Errorf("failed to revoke API key: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdateAPIKeyLastUsed updates the last_used_at timestamp.
// Should be called asynchronously after successful authentication.
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update API key last used: %w", err)
	}
	return nil
}

func (r *Repository) queryAPIKeys(ctx context.Context, query string, arg any) ([]*model.APIKey, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close()

	keys := make([]*model.APIKey, 0)
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}
	return keys, nil
}

// scanAPIKey scans a row into an APIKey. pgx.ErrNoRows is returned as is.
func scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	var key model.APIKey
	var status string

	err := row.Scan(
		&key.ID,
		&key.AccountID,
		&key.KeyHash,
		&key.KeyPrefix,
		&status,
		&key.RevokedAt,
		&key.LastUsedAt,
		&key.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan API key: %w", err)
	}

	key.Status = model.KeyStatus(status)
	return &key, nil
}
