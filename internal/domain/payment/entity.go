package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents payment session status
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
	StatusFailed  Status = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusFailed
}

// Package is a purchasable credit bundle
type Package struct {
	ID       string  `json:"id"`
	Credits  int     `json:"credits"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Packages lists the purchasable credit bundles. Prices in USD.
func Packages() []Package {
	return []Package{
		{ID: "starter", Credits: 100, Price: 9, Currency: "USD"},
		{ID: "growth", Credits: 500, Price: 39, Currency: "USD"},
		{ID: "scale", Credits: 2000, Price: 129, Currency: "USD"},
	}
}

// PackageByID resolves a package id, reporting whether it exists.
func PackageByID(id string) (Package, bool) {
	for _, p := range Packages() {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// Session represents one checkout attempt (matches payment_sessions table).
// A session transitions pending -> {paid, expired, failed} exactly once;
// the paid transition triggers exactly one ledger credit.
type Session struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	UserID      uuid.UUID    `db:"user_id" json:"user_id"`
	ExternalID  string       `db:"external_id" json:"external_id"`
	PackageID   string       `db:"package_id" json:"package_id"`
	Credits     int          `db:"credits" json:"credits"`
	Amount      float64      `db:"amount" json:"amount"`
	Currency    string       `db:"currency" json:"currency"`
	Status      Status       `db:"status" json:"status"`
	CheckoutURL string       `db:"checkout_url" json:"checkout_url,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	CompletedAt sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}

// IsPaid checks if the session already credited the ledger
func (s *Session) IsPaid() bool {
	return s.Status == StatusPaid
}

// OutcomeKind is the typed terminal result of awaiting a session.
type OutcomeKind string

const (
	OutcomePaid     OutcomeKind = "paid"
	OutcomeExpired  OutcomeKind = "expired"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// Outcome is what a watcher run reports back to its caller. TimedOut
// means the session is still pending ("unconfirmed"), not lost.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Attempts int         `json:"attempts"`
}
