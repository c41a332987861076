package lock

import "math"

// effectiveStartTime maps noStartTime (-1, "happening now") to the largest
// possible timestamp so that untimestamped requests always lose a
// youngest-wins victim comparison, matching their waiter-queue ordering.
func effectiveStartTime(ts int64) int64 {
	if ts == noStartTime {
		return math.MaxInt64
	}
	return ts
}

// detectCycle walks the wait-for graph starting at lockerID, following
// waitingFor → conflict.owner → waitingFor … . It returns the ordered chain
// of locker IDs from lockerID back to itself if a cycle closing on lockerID
// is found, or nil if the walk dead-ends or loops through some other
// locker first (which means lockerID itself is not part of a cycle, yet).
func (m *Manager) detectCycle(lockerID string) []string {
	chain := []string{lockerID}
	visited := map[string]bool{lockerID: true}
	current := lockerID

	for {
		ls := m.peekLockerState(current)
		if ls == nil {
			return nil
		}
		ls.mu.Lock()
		wf := ls.waitingFor
		ls.mu.Unlock()
		if wf == nil || wf.ownerID == "" {
			return nil
		}
		next := wf.ownerID
		if next == lockerID {
			return append(chain, next)
		}
		if visited[next] {
			return nil
		}
		visited[next] = true
		chain = append(chain, next)
		current = next
	}
}

// selectVictim picks the youngest locker in a detected cycle (by the
// requestedStartTime of the request that blocked it, -1 sorting as
// youngest), breaking ties by locker ID so victim selection is
// deterministic across repeated runs of the same scenario.
func (m *Manager) selectVictim(cycle []string) string {
	victim := cycle[0]
	victimTS := m.waitingStartTime(victim)
	for _, id := range cycle[1:] {
		if id == cycle[0] {
			continue // closing element duplicates the start
		}
		ts := m.waitingStartTime(id)
		if ts > victimTS || (ts == victimTS && id > victim) {
			victim, victimTS = id, ts
		}
	}
	return victim
}

func (m *Manager) waitingStartTime(lockerID string) int64 {
	ls := m.peekLockerState(lockerID)
	if ls == nil {
		return effectiveStartTime(noStartTime)
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.waitingFor == nil {
		return effectiveStartTime(noStartTime)
	}
	return effectiveStartTime(ls.waitingFor.requestedStartTime)
}
