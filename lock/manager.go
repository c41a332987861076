package lock

import (
	"context"
	"sync"
	"time"
)

// Manager is a sharded, deadlock-detecting reader/writer lock table. It has
// no goroutines of its own; every call runs on the caller's goroutine, and
// blocking calls park on the calling Locker's own monitor.
//
// Synchronization discipline (see constants.go/locker.go for the per-piece
// rationale): a goroutine holds at most one locker monitor and one shard
// monitor at a time; when it holds both, the locker monitor was acquired
// first; lockRecord owner/waiter lists are mutated only under their owning
// shard's monitor; no call made while holding a shard monitor acquires
// another shard monitor or any locker monitor other than one already held.
type Manager struct {
	cfg    Config
	shards []*shard

	lockersMu sync.Mutex
	lockers   map[string]*lockerState
}

// NewManager constructs a Manager. Returns ErrInvalidConfig if any option
// produced an invalid configuration.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:     cfg,
		shards:  make([]*shard, cfg.NumKeyMaps),
		lockers: make(map[string]*lockerState),
	}
	for i := range m.shards {
		m.shards[i] = newShard()
	}
	return m, nil
}

func (m *Manager) shardIndex(key Key) int {
	return int(hashKey(key) % uint64(len(m.shards)))
}

func (m *Manager) shardFor(key Key) *shard {
	return m.shards[m.shardIndex(key)]
}

// getLockerState returns the bookkeeping record for locker, creating it on
// first use. Access is guarded by lockersMu, a lock held only long enough
// to read or insert the map entry — never while holding a shard or another
// locker's monitor, honoring rule (4) of the synchronization discipline.
func (m *Manager) getLockerState(l Locker) *lockerState {
	m.lockersMu.Lock()
	defer m.lockersMu.Unlock()
	ls, ok := m.lockers[l.ID()]
	if !ok {
		ls = newLockerState()
		m.lockers[l.ID()] = ls
	}
	return ls
}

func (m *Manager) peekLockerState(lockerID string) *lockerState {
	m.lockersMu.Lock()
	defer m.lockersMu.Unlock()
	return m.lockers[lockerID]
}

// Lock acquires key for locker, blocking until granted, until the deadline
// returned by locker.LockTimeoutTime(now), or until ctx is cancelled.
// Returns nil on grant. A non-nil *Conflict is returned with a nil error;
// *Conflict itself implements error.
func (m *Manager) Lock(ctx context.Context, locker Locker, key Key, forWrite bool, requestedStartTime int64) (*Conflict, error) {
	ls := m.getLockerState(locker)
	ls.checkNotDeadlocked()

	c := m.lockNoWaitInternal(locker, key, forWrite, requestedStartTime, ls)
	if c == nil {
		m.cfg.Metrics.IncrLockAttempt(forWrite, true, false)
		return nil, nil
	}
	if c.Type != Blocked {
		return c, nil
	}
	m.cfg.Metrics.IncrLockAttempt(forWrite, false, true)
	return m.waitForLockInternal(ctx, locker, ls), nil
}

// LockNoWait attempts to acquire key without blocking. On incompatibility
// it returns a Blocked conflict and records the attempt so a later
// WaitForLock call can complete it.
func (m *Manager) LockNoWait(locker Locker, key Key, forWrite bool, requestedStartTime int64) *Conflict {
	ls := m.getLockerState(locker)
	ls.checkNotDeadlocked()
	c := m.lockNoWaitInternal(locker, key, forWrite, requestedStartTime, ls)
	m.cfg.Metrics.IncrLockAttempt(forWrite, c == nil, false)
	return c
}

// WaitForLock completes a prior LockNoWait call that returned a Blocked
// conflict. Returns ErrNotWaiting if locker has no recorded wait.
func (m *Manager) WaitForLock(ctx context.Context, locker Locker) (*Conflict, error) {
	ls := m.getLockerState(locker)
	ls.checkNotDeadlocked()
	ls.mu.Lock()
	waiting := ls.waitingFor != nil
	ls.mu.Unlock()
	if !waiting {
		return nil, ErrNotWaiting
	}
	return m.waitForLockInternal(ctx, locker, ls), nil
}

// lockNoWaitInternal is the grant algorithm: test compatibility with the
// current owner set, grant or queue, and record the first conflicting
// owner for deadlock-graph purposes.
func (m *Manager) lockNoWaitInternal(locker Locker, key Key, forWrite bool, requestedStartTime int64, ls *lockerState) *Conflict {
	idx := m.shardIndex(key)
	sh := m.shards[idx]

	sh.mu.Lock()
	rec := sh.getOrCreate(key)

	if existing := rec.findOwner(locker); existing != nil && existing.forWrite == forWrite {
		sh.mu.Unlock()
		return nil
	}

	req := &request{locker: locker, forWrite: forWrite, requestedStartTime: requestedStartTime}

	if rec.compatible(req) {
		rec.owners = append(rec.owners, req)
		sh.mu.Unlock()

		ls.mu.Lock()
		ls.waitingFor = nil
		ls.mu.Unlock()
		return nil
	}

	owner := rec.firstConflictingOwner(req)
	rec.insertWaiter(req)
	sh.mu.Unlock()

	ls.mu.Lock()
	ls.conflict = nil
	ls.waitingFor = &waitRef{
		key:                key,
		shard:              idx,
		ownerID:            owner.locker.ID(),
		requestedStartTime: requestedStartTime,
	}
	ls.mu.Unlock()

	if cycle := m.detectCycle(locker.ID()); cycle != nil {
		if c := m.resolveDeadlock(cycle); c != nil {
			return c
		}
	}

	return &Conflict{Type: Blocked, Key: rec.keyStr, Owner: owner.locker}
}

// resolveDeadlock marks the cycle's chosen victim and returns the conflict
// the caller should see. cycle[0] is the caller. If the caller itself is
// the victim, the returned conflict is Deadlock; otherwise it returns nil,
// the caller remains a normal waiter (its conflict is still Blocked) and
// the victim is woken asynchronously.
func (m *Manager) resolveDeadlock(cycle []string) *Conflict {
	victimID := m.selectVictim(cycle)
	victimState := m.peekLockerState(victimID)
	c := &Conflict{Type: Deadlock, Key: "", Owner: victimID}
	if victimState != nil {
		victimState.markDeadlocked(c)
	}
	if victimID != cycle[0] {
		return nil
	}
	return c
}

// waitForLockInternal implements the documented wait loop: poll the
// locker's own conflict slot, poll ownership under the shard monitor, and
// otherwise block on the locker's condition variable until the deadline.
func (m *Manager) waitForLockInternal(ctx context.Context, locker Locker, ls *lockerState) *Conflict {
	stop := locker.LockTimeoutTime(m.cfg.Clock.Now())
	start := m.cfg.Clock.Now()

	var conflict *Conflict
	for {
		ls.mu.Lock()
		if ls.conflict != nil {
			conflict = ls.conflict
			ls.conflict = nil
			ls.mu.Unlock()
			break
		}

		now := m.cfg.Clock.Now()
		if !now.Before(stop) {
			ls.mu.Unlock()
			conflict = &Conflict{Type: Timeout}
			break
		}

		ls.mu.Unlock()
		if m.checkOwnership(locker, ls) {
			m.cfg.Metrics.ObserveWaitLatency(m.cfg.Clock.Since(start))
			return nil
		}

		if ctx != nil {
			select {
			case <-ctx.Done():
				conflict = &Conflict{Type: Interrupted}
			default:
				m.waitOnCond(ls, stop)
				continue
			}
			break
		}
		m.waitOnCond(ls, stop)
	}

	m.flushWaiter(locker, ls)
	if conflict != nil {
		m.cfg.Metrics.IncrConflict(conflict.Type)
	}
	return conflict
}

// waitOnCond blocks on the locker's condition variable until it is
// signalled or stop elapses, using a timer goroutine to turn the absolute
// deadline into a broadcast since sync.Cond has no native timeout.
func (m *Manager) waitOnCond(ls *lockerState, stop time.Time) {
	d := stop.Sub(m.cfg.Clock.Now())
	if d <= 0 {
		return
	}
	if d > time.Second {
		d = time.Second
	}
	timer := m.cfg.Clock.NewTimer(d)
	done := make(chan struct{})
	go func() {
		select {
		case <-timer.Chan():
			ls.mu.Lock()
			ls.cond.Broadcast()
			ls.mu.Unlock()
		case <-done:
		}
	}()
	ls.mu.Lock()
	ls.cond.Wait()
	ls.mu.Unlock()
	close(done)
	timer.Stop()
}

// checkOwnership reports whether locker is currently an owner of the key it
// was last recorded as waiting for, clearing waitingFor if so. This is the
// "under the shard monitor, check if the locker is now an owner" step of
// the documented wait loop.
func (m *Manager) checkOwnership(locker Locker, ls *lockerState) bool {
	ls.mu.Lock()
	wf := ls.waitingFor
	ls.mu.Unlock()
	if wf == nil {
		return true
	}

	sh := m.shards[wf.shard]
	sh.mu.Lock()
	rec, ok := sh.records[wf.key]
	var owned bool
	if ok {
		owned = rec.findOwner(locker) != nil
	}
	sh.mu.Unlock()

	if owned {
		ls.mu.Lock()
		ls.waitingFor = nil
		ls.mu.Unlock()
	}
	return owned
}

// flushWaiter removes locker's queue entry from whatever key it was last
// recorded as waiting for, used when a wait ends in timeout, interrupt, or
// deadlock rather than a grant.
func (m *Manager) flushWaiter(locker Locker, ls *lockerState) {
	ls.mu.Lock()
	wf := ls.waitingFor
	ls.waitingFor = nil
	ls.mu.Unlock()
	if wf == nil {
		return
	}

	sh := m.shards[wf.shard]
	sh.mu.Lock()
	if rec, ok := sh.records[wf.key]; ok {
		for _, w := range rec.waiters {
			if w.locker.ID() == locker.ID() {
				rec.removeWaiter(w)
				break
			}
		}
		sh.dropIfEmpty(wf.key)
	}
	sh.mu.Unlock()
}

// ReleaseLock releases key for locker and promotes any now-compatible
// prefix of the waiter queue. Returns ErrLockNotHeld if locker did not own
// key.
func (m *Manager) ReleaseLock(locker Locker, key Key) error {
	idx := m.shardIndex(key)
	sh := m.shards[idx]

	sh.mu.Lock()
	rec, ok := sh.records[key]
	if !ok {
		sh.mu.Unlock()
		return ErrLockNotHeld
	}
	owned := rec.findOwner(locker)
	if owned == nil {
		sh.mu.Unlock()
		return ErrLockNotHeld
	}
	rec.removeOwner(owned)
	promoted := rec.promotePrefix()
	sh.dropIfEmpty(key)
	sh.mu.Unlock()

	m.cfg.Metrics.IncrRelease()
	for _, p := range promoted {
		m.wakePromoted(p.locker)
	}
	return nil
}

// Downgrade converts a write ownership into a read ownership, promoting any
// now-compatible waiters exactly as ReleaseLock does.
func (m *Manager) Downgrade(locker Locker, key Key) error {
	idx := m.shardIndex(key)
	sh := m.shards[idx]

	sh.mu.Lock()
	rec, ok := sh.records[key]
	if !ok {
		sh.mu.Unlock()
		return ErrLockNotHeld
	}
	owned := rec.findOwner(locker)
	if owned == nil || !owned.forWrite {
		sh.mu.Unlock()
		return ErrLockNotHeld
	}
	owned.forWrite = false
	promoted := rec.promotePrefix()
	sh.mu.Unlock()

	for _, p := range promoted {
		m.wakePromoted(p.locker)
	}
	return nil
}

func (m *Manager) wakePromoted(l Locker) {
	ls := m.peekLockerState(l.ID())
	if ls == nil {
		return
	}
	ls.mu.Lock()
	ls.waitingFor = nil
	ls.cond.Broadcast()
	ls.mu.Unlock()
}

// GetOwners returns a snapshot of the lockers currently owning key.
func (m *Manager) GetOwners(key Key) []Locker {
	sh := m.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[key]
	if !ok {
		return nil
	}
	out := make([]Locker, len(rec.owners))
	for i, o := range rec.owners {
		out[i] = o.locker
	}
	return out
}

// GetWaiters returns a snapshot of the lockers currently queued on key, in
// queue order.
func (m *Manager) GetWaiters(key Key) []Locker {
	sh := m.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.records[key]
	if !ok {
		return nil
	}
	out := make([]Locker, len(rec.waiters))
	for i, w := range rec.waiters {
		out[i] = w.locker
	}
	return out
}

// Stats is a diagnostics snapshot of the sharded lock table.
type Stats struct {
	NumShards    int
	ActiveLocks  int
	TotalWaiters int
}

// Stats reports shard-level occupancy, grounded on the source's
// package-private getKeyMap used by its own test suite — exposed here as a
// small public surface since Go has no test-only visibility seam.
func (m *Manager) Stats() Stats {
	s := Stats{NumShards: len(m.shards)}
	for _, sh := range m.shards {
		sh.mu.Lock()
		for _, rec := range sh.records {
			if len(rec.owners) > 0 {
				s.ActiveLocks++
			}
			s.TotalWaiters += len(rec.waiters)
		}
		sh.mu.Unlock()
	}
	m.cfg.Metrics.SetActiveLocks(s.ActiveLocks)
	m.cfg.Metrics.SetWaiters(s.TotalWaiters)
	return s
}
