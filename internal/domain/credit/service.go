package credit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/numcheck/numcheck-api/internal/pkg/metrics"
)

// RelatedEntityPaymentSession tags ledger entries created by payment
// reconciliation so crediting can be checked for idempotency.
const RelatedEntityPaymentSession = "payment_session"

// service implements the Service interface
type service struct {
	repo *LedgerRepository
}

// NewService creates a new credit ledger service
func NewService(db *sqlx.DB) Service {
	return &service{
		repo: NewRepository(db),
	}
}

// Adjust atomically applies one balance change and appends the ledger entry
func (s *service) Adjust(ctx context.Context, userID uuid.UUID, adj Adjustment, actor Actor) (int, error) {
	if err := validateAdjustment(adj); err != nil {
		return 0, err
	}

	balance, err := s.repo.Adjust(ctx, userID.String(), adj, actor)
	if err != nil {
		metrics.CreditAdjustments.WithLabelValues(string(adj.Action), "error").Inc()
		return 0, err
	}

	metrics.CreditAdjustments.WithLabelValues(string(adj.Action), "ok").Inc()
	return balance, nil
}

// AdjustTx applies a balance change within an external transaction.
// The caller owns commit/rollback.
func (s *service) AdjustTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, adj Adjustment, actor Actor) (int, error) {
	if err := validateAdjustment(adj); err != nil {
		return 0, err
	}

	balance, err := s.repo.AdjustTx(ctx, tx, userID.String(), adj, actor)
	if err != nil {
		metrics.CreditAdjustments.WithLabelValues(string(adj.Action), "error").Inc()
		return 0, err
	}

	metrics.CreditAdjustments.WithLabelValues(string(adj.Action), "ok").Inc()
	return balance, nil
}

// GetBalance returns the current credit balance for a user
func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.GetBalance(ctx, userID.String())
}

// HasSessionCredit checks whether a ledger entry already references a
// payment session. Used to make reconciliation exactly-once: the second
// delivery of a "paid" event finds the existing entry and backs off.
func (s *service) HasSessionCredit(ctx context.Context, sessionID string) (bool, error) {
	entityType := RelatedEntityPaymentSession

	filters := SearchFilters{
		RelatedEntityType: &entityType,
		RelatedEntityID:   &sessionID,
		Limit:             1,
		Offset:            0,
	}

	transactions, err := s.repo.SearchTransactions(ctx, filters)
	if err != nil {
		return false, fmt.Errorf("failed to check session credit: %w", err)
	}

	return len(transactions) > 0, nil
}

// ListTransactions returns paginated transaction history for a user
func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}

	pagination := Pagination{
		Limit:  limit,
		Offset: offset,
	}

	return s.repo.ListTransactions(ctx, userID.String(), pagination)
}

// SearchTransactions returns filtered transactions (admin use)
func (s *service) SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error) {
	return s.repo.SearchTransactions(ctx, filters)
}

func validateAdjustment(adj Adjustment) error {
	if strings.TrimSpace(adj.Reason) == "" {
		return ErrMissingReason
	}

	switch adj.Action {
	case ActionAdd, ActionSubtract:
		if adj.Amount <= 0 {
			return ErrInvalidAmount
		}
	case ActionSet:
		// set permits zero
		if adj.Amount < 0 {
			return ErrInvalidAmount
		}
	default:
		return ErrInvalidAmount
	}

	return nil
}
