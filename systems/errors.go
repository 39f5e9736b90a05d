package systems

import "errors"

// Sentinel errors forming the closed failure taxonomy for all fallible
// simulation operations. Callers match with errors.Is; wrapped messages
// carry the context.
var (
	// ErrPoolExhausted means no free slot of the requested kind. Callers
	// skip the action this frame rather than treating it as fatal.
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrRateLimited means the owner's fire cooldown has not elapsed.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidArgument marks a caller bug, not a runtime condition.
	// It is surfaced immediately and never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrZoneUnsatisfiable means random placement could not escape the
	// safe-haven zone. It only steers the internal fallback path and is
	// never returned to spawn callers.
	ErrZoneUnsatisfiable = errors.New("zone unsatisfiable")
)
