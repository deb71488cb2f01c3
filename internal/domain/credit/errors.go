package credit

import "errors"

var (
	// ErrInsufficientBalance is returned when a subtract would take the balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when amount <= 0 (set permits 0)
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUserNotFound is returned when the user identity does not resolve
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingReason is returned when an adjustment carries no reason
	ErrMissingReason = errors.New("missing reason")

	ErrInternal = errors.New("internal error")
)

// ErrorCode maps ledger errors to their wire-level code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrUserNotFound):
		return "UserNotFound"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrMissingReason):
		return "MissingReason"
	default:
		return "Internal"
	}
}
