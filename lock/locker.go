package lock

import (
	"sync"
	"time"
)

// Locker is a transaction-like entity that may own or wait for locks.
// Implementations are typically a thin wrapper around a transaction or
// session handle; the manager never inspects the concrete type beyond ID
// and LockTimeoutTime.
type Locker interface {
	// ID returns a stable identifier for this locker, used as the map key
	// for per-locker bookkeeping and as the tie-breaker for deadlock victim
	// selection.
	ID() string

	// LockTimeoutTime returns the absolute deadline a Lock call issued at
	// `now` should give up at. Implementations should compute this with
	// clock.SaturatingAddDuration so a very large timeout cannot wrap around
	// to a deadline in the past.
	LockTimeoutTime(now time.Time) time.Time
}

// lockerState is the manager's private bookkeeping for a Locker: the
// locker's own monitor, its most recent conflict, and what it is currently
// waiting for. Rule (2) of the synchronization discipline requires this
// monitor be acquired before any shard monitor when both are needed.
type lockerState struct {
	mu   sync.Mutex
	cond *sync.Cond

	// conflict holds the outcome a blocked waiter should wake up to. Set by
	// the releasing/promoting side, read and cleared by the waiter itself.
	conflict *Conflict

	// waitingFor identifies the key and shard this locker is currently
	// queued on, or nil if it owns everything it has asked for.
	waitingFor *waitRef

	// deadlocked is permanent once set: every future call on this locker
	// must fail. There is deliberately no path to clear it.
	deadlocked bool
}

// waitRef names the lock a waiter is parked on, enough to find and flush
// its queue entry without re-walking every shard, and enough to walk the
// wait-for graph (ownerID, requestedStartTime) without touching the shard.
type waitRef struct {
	key                Key
	shard              int
	ownerID            string
	requestedStartTime int64
}

func newLockerState() *lockerState {
	s := &lockerState{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// markDeadlocked records this locker as the deadlock victim and wakes
// anything parked in its wait loop. Once set it is never cleared: any
// subsequent call against this locker must panic.
func (s *lockerState) markDeadlocked(c *Conflict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlocked = true
	s.conflict = c
	s.cond.Broadcast()
}

func (s *lockerState) checkNotDeadlocked() {
	s.mu.Lock()
	dead := s.deadlocked
	s.mu.Unlock()
	if dead {
		panicInvalidState("lock call on a deadlock-marked locker")
	}
}
