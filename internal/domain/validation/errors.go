package validation

import "errors"

var (
	// ErrChannelDisabled is returned when the platform toggle for the
	// requested channel is off
	ErrChannelDisabled = errors.New("validation channel disabled")

	// ErrProviderUnavailable is returned when the lookup provider fails;
	// the consumed credit is refunded before this surfaces
	ErrProviderUnavailable = errors.New("lookup provider unavailable")
)
