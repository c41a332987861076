package lock

import "errors"

var (
	// ErrInvalidConfig indicates a Manager was constructed with an invalid option.
	ErrInvalidConfig = errors.New("lockmgr: invalid configuration")

	// ErrInvalidTimeout indicates a non-positive timeout was supplied to a
	// blocking call.
	ErrInvalidTimeout = errors.New("lockmgr: invalid timeout")

	// ErrNotWaiting indicates WaitForLock was called for a locker that has no
	// outstanding no-wait attempt recorded against this key.
	ErrNotWaiting = errors.New("lockmgr: locker is not waiting on this key")

	// ErrLockNotHeld indicates ReleaseLock or Downgrade was called for a key
	// the locker does not currently own.
	ErrLockNotHeld = errors.New("lockmgr: lock is not held by this locker")
)

// panicInvalidState reports a programmer error per spec: a broken interlock
// invariant is fatal, not recoverable. Mirrors the source material's
// assertion-failure-is-fatal stance (see DESIGN.md open question resolution).
func panicInvalidState(msg string) {
	panic("lockmgr: invalid state: " + msg)
}
