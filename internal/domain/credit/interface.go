package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Service interface defines the credit ledger operations
type Service interface {
	// Adjust atomically applies one balance change (add/subtract/set)
	// and appends the matching ledger entry. Returns the new balance.
	Adjust(ctx context.Context, userID uuid.UUID, adj Adjustment, actor Actor) (int, error)

	// AdjustTx applies a balance change within an external transaction.
	// Used when the adjustment must be atomic with another write, e.g.
	// marking a payment session paid.
	AdjustTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, adj Adjustment, actor Actor) (int, error)

	// GetBalance returns the current credit balance for a user
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)

	// HasSessionCredit reports whether a ledger entry already references
	// the given payment session. Reconciliation uses this to keep
	// duplicate "paid" deliveries from double-crediting.
	HasSessionCredit(ctx context.Context, sessionID string) (bool, error)

	// ListTransactions returns paginated transaction history for a user
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)

	// SearchTransactions returns filtered transactions (for admin use)
	SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error)
}
