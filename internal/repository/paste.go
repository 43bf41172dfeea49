package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

const pasteColumns = `id, account_id, title, content, type, size, created_at`

// CreatePasteWithLimit inserts p unless its account already owns maxPastes
// pastes. Returns ErrPasteIDExists when the ID is taken so the caller can
// retry with a fresh one. A maxPastes of zero or less disables the limit.
func (r *Repository) CreatePasteWithLimit(ctx context.Context, p *model.Paste, maxPastes int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockAccount(ctx, tx, p.AccountID); err != nil {
		return err
	}

	if maxPastes > 0 {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM pastes WHERE account_id = $1`, p.AccountID).Scan(&count); err != nil {
			return fmt.Errorf("failed to count pastes: %w", err)
		}
		if count >= maxPastes {
			return ErrPasteLimitReached
		}
	}

	query := `
		INSERT INTO pastes (id, account_id, title, content, type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, query,
		p.ID,
		p.AccountID,
		p.Title,
		p.Content,
		p.Type,
		p.Size,
		p.CreatedAt,
	); err != nil {
		if isUniqueViolation(err, "pastes_pkey") {
			return ErrPasteIDExists
		}
		return fmt.Errorf("failed to create paste: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit paste: %w", err)
	}
	return nil
}

// GetPasteByID retrieves a paste by its public ID.
func (r *Repository) GetPasteByID(ctx context.Context, id string) (*model.Paste, error) {
	query := `SELECT ` + pasteColumns + ` FROM pastes WHERE id = $1`

	p, err := scanPaste(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPasteNotFound
	}
	return p, err
}

// PasteExists reports whether a paste with the ID exists.
func (r *Repository) PasteExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pastes WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check paste id: %w", err)
	}
	return exists, nil
}

// ListPastesByAccount returns an account's pastes, newest first.
// Pastes created at the same instant keep insertion order.
func (r *Repository) ListPastesByAccount(ctx context.Context, accountID string) ([]*model.Paste, error) {
	query := `
		SELECT ` + pasteColumns + `
		FROM pastes
		WHERE account_id = $1
		ORDER BY created_at DESC, seq ASC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pastes: %w", err)
	}
	defer rows.Close()

	pastes := make([]*model.Paste, 0)
	for rows.Next() {
		p, err := scanPaste(rows)
		if err != nil {
			return nil, err
		}
		pastes = append(pastes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pastes: %w", err)
	}
	return pastes, nil
}

func scanPaste(row pgx.Row) (*model.Paste, error) {
	var p model.Paste
	var typ string

	err := row.Scan(
		&p.ID,
		&p.AccountID,
		&p.Title,
		&p.Content,
		&typ,
		&p.Size,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan paste: %w", err)
	}

	p.Type = model.PasteType(typ)
	return &p, nil
}
