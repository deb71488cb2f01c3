package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Adjust(ctx context.Context, userID string, adj Adjustment, actor Actor) (int, error)
	AdjustTx(ctx context.Context, tx *sqlx.Tx, userID string, adj Adjustment, actor Actor) (int, error)
	GetBalance(ctx context.Context, userID string) (int, error)
	ListTransactions(ctx context.Context, userID string, pagination Pagination) ([]Transaction, error)
	SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error)
}

// LedgerRepository provides balance and append-only transaction log operations.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Adjust applies one balance change and its ledger entry in a single
// database transaction. The user's row lock serializes concurrent
// adjustments to the same user; different users proceed independently.
func (r *LedgerRepository) Adjust(ctx context.Context, userID string, adj Adjustment, actor Actor) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	balance, err := r.applyAdjust(ctx2, tx, userID, adj, actor)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return balance, nil
}

// AdjustTx applies a balance change within an external transaction
// (FOR UPDATE row lock). This method does NOT commit or rollback the
// transaction — the caller is responsible. Used when the adjustment
// must be atomic with another operation, e.g. flipping a payment
// session to paid.
func (r *LedgerRepository) AdjustTx(ctx context.Context, tx *sqlx.Tx, userID string, adj Adjustment, actor Actor) (int, error) {
	return r.applyAdjust(ctx, tx, userID, adj, actor)
}

func (r *LedgerRepository) applyAdjust(ctx context.Context, tx *sqlx.Tx, userID string, adj Adjustment, actor Actor) (int, error) {
	// FOR UPDATE lock on the user's balance row
	var balance int
	err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: lock user row", ErrInternal)
	}

	var newBalance, delta int
	switch adj.Action {
	case ActionAdd:
		newBalance = balance + adj.Amount
		delta = adj.Amount
	case ActionSubtract:
		newBalance = balance - adj.Amount
		delta = -adj.Amount
		if newBalance < 0 {
			return 0, ErrInsufficientBalance
		}
	case ActionSet:
		newBalance = adj.Amount
		delta = newBalance - balance
	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrInternal, adj.Action)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET credit_balance = $2, updated_at = NOW() WHERE id = $1`, userID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("%w: update user balance", ErrInternal)
	}

	if err := r.insertLedger(ctx, tx, userID, delta, newBalance, adj, actor); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (r *LedgerRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx2, &balance, `SELECT credit_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}

	return balance, nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, userID string, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount_delta, resulting_balance, action, reason,
		       actor_kind, actor_id, related_entity_type, related_entity_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

func (r *LedgerRepository) SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, user_id, amount_delta, resulting_balance, action, reason,
		       actor_kind, actor_id, related_entity_type, related_entity_id, created_at
		FROM credit_transactions
		WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if filters.UserID != nil && *filters.UserID != "" {
		base += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *filters.UserID)
		idx++
	}
	if filters.Action != nil && *filters.Action != "" {
		base += fmt.Sprintf(" AND action = $%d", idx)
		args = append(args, *filters.Action)
		idx++
	}
	if filters.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filters.DateFrom)
		idx++
	}
	if filters.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filters.DateTo)
		idx++
	}
	if filters.RelatedEntityType != nil && *filters.RelatedEntityType != "" {
		base += fmt.Sprintf(" AND related_entity_type = $%d", idx)
		args = append(args, *filters.RelatedEntityType)
		idx++
	}
	if filters.RelatedEntityID != nil && *filters.RelatedEntityID != "" {
		base += fmt.Sprintf(" AND related_entity_id = $%d", idx)
		args = append(args, *filters.RelatedEntityID)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	base = strings.TrimSpace(base) + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: search transactions", ErrInternal)
	}

	return transactions, nil
}

func (r *LedgerRepository) insertLedger(ctx context.Context, tx *sqlx.Tx, userID string, delta, resultingBalance int, adj Adjustment, actor Actor) error {
	var actorID *string
	if actor.ID != uuid.Nil {
		s := actor.ID.String()
		actorID = &s
	}

	var relatedType, relatedID *string
	if adj.RelatedEntityType != "" {
		relatedType = &adj.RelatedEntityType
	}
	if adj.RelatedEntityID != "" {
		relatedID = &adj.RelatedEntityID
	}

	kind := actor.Kind
	if kind == "" {
		kind = ActorSystem
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, amount_delta, resulting_balance, action, reason,
			actor_kind, actor_id, related_entity_type, related_entity_id
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`, userID, delta, resultingBalance, string(adj.Action), adj.Reason, string(kind), actorID, relatedType, relatedID)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return nil
}
