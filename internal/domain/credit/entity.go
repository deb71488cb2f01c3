package credit

import (
	"time"

	"github.com/google/uuid"
)

// Action defines supported balance adjustment actions.
type Action string

const (
	ActionAdd      Action = "add"
	ActionSubtract Action = "subtract"
	ActionSet      Action = "set"
)

// ActorKind identifies who initiated an adjustment.
type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorAdmin  ActorKind = "admin"
	ActorUser   ActorKind = "user"
)

// Actor records the initiator of an adjustment in the ledger.
type Actor struct {
	Kind ActorKind
	ID   uuid.UUID
}

// Adjustment describes one balance change to apply.
type Adjustment struct {
	Action            Action
	Amount            int
	Reason            string
	RelatedEntityType string
	RelatedEntityID   string
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// SearchFilters provides admin-facing transaction filtering.
type SearchFilters struct {
	UserID            *string
	Action            *string
	DateFrom          *time.Time
	DateTo            *time.Time
	RelatedEntityType *string
	RelatedEntityID   *string
	Limit             int
	Offset            int
}

// Transaction is a ledger row. Rows are append-only: created once,
// never mutated or deleted.
type Transaction struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	AmountDelta       int       `db:"amount_delta" json:"amount_delta"`
	ResultingBalance  int       `db:"resulting_balance" json:"resulting_balance"`
	Action            string    `db:"action" json:"action"`
	Reason            string    `db:"reason" json:"reason"`
	ActorKind         string    `db:"actor_kind" json:"actor_kind"`
	ActorID           *string   `db:"actor_id" json:"actor_id,omitempty"`
	RelatedEntityType *string   `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *string   `db:"related_entity_id" json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// BulkOutcome is the per-identity result of a bulk adjustment.
type BulkOutcome struct {
	Identity   string `json:"identity"`
	NewBalance int    `json:"new_balance,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BulkResult aggregates a bulk adjustment run. It is returned to the
// caller and never persisted.
type BulkResult struct {
	Processed int           `json:"processed_users"`
	Failed    int           `json:"failed"`
	Outcomes  []BulkOutcome `json:"results"`
}

// Errors returns the per-identity failure messages in "identity: code" form.
func (r BulkResult) Errors() []string {
	errs := make([]string, 0, r.Failed)
	for _, o := range r.Outcomes {
		if o.Error != "" {
			errs = append(errs, o.Identity+": "+o.Error)
		}
	}
	return errs
}
