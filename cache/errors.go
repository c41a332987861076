package cache

import "errors"

var (
	// ErrTimeout indicates a deadline elapsed waiting on the pendingPrevious
	// interlock.
	ErrTimeout = errors.New("cache: timed out waiting for pending operation")

	// ErrMiss indicates the requested key is known unbound by a neighbor's
	// negative range; no server round trip is needed.
	ErrMiss = errors.New("cache: key is known unbound")

	// ErrBlocked indicates an in-flight fetch already covers the requested
	// key; the caller should retry once it completes.
	ErrBlocked = errors.New("cache: fetch already in flight for this key")

	// ErrInvalidConfig indicates a Cache was constructed with an invalid
	// option.
	ErrInvalidConfig = errors.New("cache: invalid configuration")

	// ErrEntryNotFound indicates an operation referenced a key with no
	// cache entry.
	ErrEntryNotFound = errors.New("cache: no entry for key")

	// ErrAlreadyDecached indicates an operation was attempted against an
	// entry that has already transitioned to the terminal DECACHED state.
	ErrAlreadyDecached = errors.New("cache: entry is decached")

	// ErrInvalidValue indicates a caller supplied RemovedValue (-1) for an
	// entry that is not transitioning to DECACHED. RemovedValue is reserved
	// for marking a binding as removed; Install never produces a DECACHED
	// entry, so it can never legally receive this value.
	ErrInvalidValue = errors.New("cache: RemovedValue is not valid outside DECACHED")
)

// panicInvalidState reports a programmer error: a broken cache invariant,
// such as a double pendingPrevious set or a consistency check failure. The
// source tolerates some assertion failures under WARNING logs; this spec
// treats them as fatal.
func panicInvalidState(msg string) {
	panic("cache: invalid state: " + msg)
}
