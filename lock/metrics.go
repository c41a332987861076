package lock

import "time"

// Metrics defines the interface for recording lock manager operational
// data. All methods must be safe for concurrent use.
type Metrics interface {
	// IncrLockAttempt records a Lock/LockNoWait call outcome.
	IncrLockAttempt(forWrite bool, granted bool, queued bool)

	// IncrConflict records a conflict returned to a caller, by kind.
	IncrConflict(c ConflictType)

	// IncrRelease records a ReleaseLock call.
	IncrRelease()

	// ObserveWaitLatency records how long a grant took once a request had
	// to queue.
	ObserveWaitLatency(d time.Duration)

	// SetActiveLocks reports the current number of keys with at least one
	// owner.
	SetActiveLocks(count int)

	// SetWaiters reports the current number of queued waiters across all
	// shards.
	SetWaiters(count int)
}
