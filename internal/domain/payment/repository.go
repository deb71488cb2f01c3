package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines payment session data access
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByExternalID(ctx context.Context, externalID string) (*Session, error)
	MarkTerminalTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) (bool, error)
	MarkTerminal(ctx context.Context, id uuid.UUID, status Status) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates payment session repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO payment_sessions (id, user_id, external_id, package_id, credits, amount, currency, status, checkout_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.ExternalID,
		s.PackageID,
		s.Credits,
		s.Amount,
		s.Currency,
		s.Status,
		s.CheckoutURL,
	)
	if err != nil {
		return fmt.Errorf("payment repository create: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, external_id, package_id, credits, amount, currency, status, checkout_url, created_at, updated_at, completed_at`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM payment_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("payment repository get: %w", err)
	}
	return &s, nil
}

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `SELECT `+sessionColumns+` FROM payment_sessions WHERE external_id = $1`, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("payment repository get by external id: %w", err)
	}
	return &s, nil
}

// MarkTerminalTx flips a pending session to a terminal status within an
// external transaction. Returns false when the session was no longer
// pending, which is how double delivery is detected under concurrency.
func (r *repository) MarkTerminalTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("%w: %q is not terminal", ErrInternal, status)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE payment_sessions
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, status)
	if err != nil {
		return false, fmt.Errorf("payment repository mark terminal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment repository mark terminal: %w", err)
	}

	return rows == 1, nil
}

// MarkTerminal is MarkTerminalTx with its own short transaction.
func (r *repository) MarkTerminal(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("payment repository mark terminal: %w", err)
	}
	defer tx.Rollback()

	flipped, err := r.MarkTerminalTx(ctx, tx, id, status)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("payment repository mark terminal: %w", err)
	}

	return flipped, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}

	sessions := make([]*Session, 0)
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+`
		FROM payment_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payment repository list: %w", err)
	}

	return sessions, nil
}
