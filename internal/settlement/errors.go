package settlement

import "errors"

var (
	ErrMarketNotFound  = errors.New("market not found")
	ErrAlreadyDeclared = errors.New("market already declared")
	ErrNotDeclared     = errors.New("market not declared")

	// ErrMalformedOutcome aborts a sweep before any bet is touched.
	ErrMalformedOutcome = errors.New("malformed outcome")
	// ErrUnresolvableRating marks a bet that is skipped and left Pending.
	ErrUnresolvableRating = errors.New("unresolvable rating")
	ErrUnknownRatingType  = errors.New("unknown rating type")
	ErrInvalidConvert     = errors.New("invalid rating convert value")
	ErrInvalidChoice      = errors.New("invalid chosen number")

	ErrSweepInFlight = errors.New("settlement already queued for market")
	ErrQueueFull     = errors.New("settlement queue full")
)
