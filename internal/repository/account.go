package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

const accountColumns = `id, email, password_hash, verified, verified_at, created_at`

// CreateAccount inserts a new account.
func (r *Repository) CreateAccount(ctx context.Context, acct *model.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, verified, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		acct.ID,
		acct.Email,
		acct.PasswordHash,
		acct.Verified,
		acct.VerifiedAt,
		acct.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_accounts_email") {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetAccountByEmail retrieves an account by its email address.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

// MarkAccountVerified sets the verified flag once and returns the account.
// Verifying an already verified account keeps the original verified_at.
func (r *Repository) MarkAccountVerified(ctx context.Context, id string, at time.Time) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET verified = TRUE, verified_at = COALESCE(verified_at, $2)
		WHERE id = $1
		RETURNING ` + accountColumns

	return scanAccount(r.pool.QueryRow(ctx, query, id, at))
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acct model.Account
	err := row.Scan(
		&acct.ID,
		&acct.Email,
		&acct.PasswordHash,
		&acct.Verified,
		&acct.VerifiedAt,
		&acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acct, nil
}

// lockAccount takes a row lock on the account for the rest of tx.
// Quota checks on keys and pastes serialize on this lock.
func lockAccount(ctx context.Context, tx pgx.Tx, accountID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to lock account: %w", err)
	}
	return nil
}
