package shared

import "errors"

var (
	// ErrDataUnavailable indicates market data could not be fetched for the
	// current cycle. Non-fatal, the cycle is skipped and retried on the next
	// scheduled poll.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrOrderRejected indicates the exchange acknowledged an order request
	// without an order id. Non-fatal, position state is left unchanged.
	ErrOrderRejected = errors.New("order rejected by exchange")
	// ErrInvariantViolation indicates a signal contradicted the current
	// position state. Handled as a defensive skip, never a crash.
	ErrInvariantViolation = errors.New("position invariant violated")
)
