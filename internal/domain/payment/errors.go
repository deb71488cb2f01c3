package payment

import "errors"

var (
	// ErrSessionNotFound is returned when the session id does not resolve
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrDuplicateReconciliation is returned when a session was already credited
	ErrDuplicateReconciliation = errors.New("session already reconciled")

	// ErrSessionExpired is returned when a paid event arrives for an expired session
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidPackage is returned when the package id is unknown
	ErrInvalidPackage = errors.New("unknown credit package")

	// ErrInvalidSignature is returned on webhook signature mismatch
	ErrInvalidSignature = errors.New("invalid webhook signature")

	ErrInternal = errors.New("internal error")
)
