package lock

// lockRecord is the state for a single key: an ordered list of compatible
// owners and a queue of waiters. It is never synchronized itself — per the
// synchronization discipline, all mutation happens under the owning shard's
// monitor (see shard.go).
type lockRecord struct {
	keyStr  string
	owners  []*request
	waiters []*request
}

func newLockRecord(keyStr string) *lockRecord {
	return &lockRecord{keyStr: keyStr}
}

// isEmpty reports whether this record has no owners and no waiters, the
// condition under which the shard may drop it from its map.
func (l *lockRecord) isEmpty() bool {
	return len(l.owners) == 0 && len(l.waiters) == 0
}

// compatible reports whether req could be granted given the current owner
// set: all readers, or a single writer and nothing else.
func (l *lockRecord) compatible(req *request) bool {
	for _, o := range l.owners {
		if !req.compatibleWith(o) {
			return false
		}
	}
	return true
}

// firstConflictingOwner returns an owner incompatible with req, used to
// populate Conflict.Owner and as the starting edge of the wait-for graph.
func (l *lockRecord) firstConflictingOwner(req *request) *request {
	for _, o := range l.owners {
		if !req.compatibleWith(o) {
			return o
		}
	}
	return nil
}

// insertWaiter inserts req into the waiter queue in ascending
// requestedStartTime order. A noStartTime (-1) request is treated as
// "happening now" and is inserted after every timestamped waiter, so older
// operations are not starved by a flood of untimestamped ones.
func (l *lockRecord) insertWaiter(req *request) {
	if req.requestedStartTime == noStartTime {
		l.waiters = append(l.waiters, req)
		return
	}
	idx := len(l.waiters)
	for i, w := range l.waiters {
		if w.requestedStartTime == noStartTime || req.requestedStartTime < w.requestedStartTime {
			idx = i
			break
		}
	}
	l.waiters = append(l.waiters, nil)
	copy(l.waiters[idx+1:], l.waiters[idx:])
	l.waiters[idx] = req
}

// removeWaiter deletes req from the waiter queue, if present. Used both by
// flushWaiter (timeout/interrupt/deadlock cleanup) and by promotion.
func (l *lockRecord) removeWaiter(req *request) bool {
	for i, w := range l.waiters {
		if w == req {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// removeOwner deletes req from the owner list, if present.
func (l *lockRecord) removeOwner(req *request) bool {
	for i, o := range l.owners {
		if o == req {
			l.owners = append(l.owners[:i], l.owners[i+1:]...)
			return true
		}
	}
	return false
}

// findOwner returns the owner request for locker, if any.
func (l *lockRecord) findOwner(locker Locker) *request {
	for _, o := range l.owners {
		if o.locker.ID() == locker.ID() {
			return o
		}
	}
	return nil
}

// promotePrefix scans the waiter queue from the front and grants every
// waiter compatible with the (growing) owner set, stopping at the first
// incompatible one. It returns the promoted requests so the caller can wake
// their locker monitors outside the shard lock.
func (l *lockRecord) promotePrefix() []*request {
	var promoted []*request
	for len(l.waiters) > 0 {
		head := l.waiters[0]
		if !l.compatible(head) {
			break
		}
		l.waiters = l.waiters[1:]
		l.owners = append(l.owners, head)
		promoted = append(promoted, head)
	}
	return promoted
}
