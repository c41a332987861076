package cache

import (
	"context"

	"github.com/dantel35/reddwarf/clock"
)

// Cache is the concurrent binding cache: an ordered set of Entry values
// keyed by BindingKey, with negative-range bookkeeping and a per-entry
// pendingPrevious interlock. See config.go for why the key space is held
// as one ordered structure rather than hash-partitioned.
type Cache struct {
	cfg Config
	s   *shard
}

// New constructs a Cache. The LAST sentinel entry is installed immediately
// and is never evicted or decached.
func New(opts ...Option) (*Cache, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cache{cfg: cfg, s: newShard(cfg.MaxEntriesPerShard)}

	last := newEntry(Last, LastValue, CachedRead, "")
	c.s.mu.Lock()
	c.s.insert(last)
	c.s.mu.Unlock()

	return c, nil
}

// Get returns the live entry for k if one is cached and compatible with
// the requested access mode, ErrMiss if k is known unbound by a cached
// neighbor's negative range, or ErrBlocked if a fetch already in flight
// covers k.
func (c *Cache) Get(k BindingKey, forWrite bool) (*Entry, error) {
	c.s.mu.Lock()
	e, ok := c.s.get(k)
	if ok {
		c.s.touch(k)
	}
	upper, hasUpper := c.s.higherEntry(k)
	c.s.mu.Unlock()

	if ok {
		if err := compatibleAccess(e.State(), forWrite); err != nil {
			c.cfg.Metrics.IncrLookup(false, false, true)
			return nil, err
		}
		c.cfg.Metrics.IncrLookup(true, false, false)
		return e, nil
	}
	if hasUpper && upper.KnownUnbound(k) {
		c.cfg.Metrics.IncrLookup(false, true, false)
		return nil, ErrMiss
	}
	c.cfg.Metrics.IncrLookup(false, false, false)
	return nil, ErrEntryNotFound
}

// compatibleAccess reports whether an entry in state st may satisfy a
// request for forWrite access, returning ErrBlocked if a fetch or
// writeback is already in flight for the entry.
func compatibleAccess(st State, forWrite bool) error {
	switch st {
	case FetchingRead, FetchingWrite, Writing:
		return ErrBlocked
	case CachedRead:
		if forWrite {
			return ErrBlocked
		}
		return nil
	case CachedWrite:
		return nil
	case Decached:
		return ErrAlreadyDecached
	default:
		return nil
	}
}

// Install creates a new entry for k, or upgrades an existing non-decached
// entry in place, recording value, state, and the owning context. The
// caller is responsible for having obtained any lock the new state
// requires; Install only updates cache bookkeeping.
//
// Inserting k changes the relationship between k and its successor: the
// successor's negative-range claim, if any, may have assumed nothing
// existed below it down to some looser point. Install tightens that claim
// to (k, bound) under the successor's pendingPrevious interlock, per the
// neighbor-mutation rule in entry.go.
func (c *Cache) Install(k BindingKey, value int64, forWrite bool, ctx context.Context, contextID string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if value == RemovedValue {
		return nil, ErrInvalidValue
	}

	st := CachedRead
	if forWrite {
		st = CachedWrite
	}

	c.s.mu.Lock()
	if e, ok := c.s.get(k); ok {
		if e.State() == Decached {
			c.s.mu.Unlock()
			return nil, ErrAlreadyDecached
		}
		e.setState(st, contextID)
		c.s.touch(k)
		c.s.mu.Unlock()
		return e, nil
	}

	e := newEntry(k, value, st, contextID)
	successor, hasSuccessor := c.s.higherEntry(k)
	c.s.insert(e)
	c.cfg.Metrics.SetEntries(len(c.s.entries))
	c.s.mu.Unlock()

	if hasSuccessor {
		c.updateNeighborPreviousKey(successor, k)
	}
	return e, nil
}

// updateNeighborPreviousKey awaits neighbor's pendingPrevious interlock,
// then records that p is now the best-known bound predecessor of neighbor,
// applying entry.go's negative-range update rule — tightening neighbor's
// claim if p is closer than what it held, loosening it if p is further
// (e.g. the entry neighbor's claim pointed at was just evicted). A timeout
// is logged and otherwise ignored: it leaves neighbor's claim as it was,
// which is always safe, just possibly not as tight as it could be.
func (c *Cache) updateNeighborPreviousKey(neighbor *Entry, p BindingKey) {
	start := c.cfg.Clock.Now()
	deadline := clock.SaturatingAddDuration(start, c.cfg.PendingPreviousTimeout)
	if err := neighbor.AwaitNotPendingPrevious(c.cfg.Clock.Now, deadline); err != nil {
		c.cfg.Logger.Warnw("timed out awaiting pendingPrevious to update neighbor",
			"neighbor", neighbor.Key().String(), "previousKey", p.String())
		return
	}
	neighbor.SetPendingPrevious()
	neighbor.UpdatePreviousKey(p, false)
	neighbor.SetNotPendingPrevious()
}

// SetPreviousKey applies the negative-range update rule to the entry for
// k, awaiting the entry's pendingPrevious interlock first. Returns
// ErrEntryNotFound if k is not cached, or ErrTimeout if the interlock
// does not clear before the configured deadline.
func (c *Cache) SetPreviousKey(k BindingKey, p BindingKey, unbound bool) (bool, error) {
	e, ok := c.lookup(k)
	if !ok {
		return false, ErrEntryNotFound
	}

	start := c.cfg.Clock.Now()
	deadline := clock.SaturatingAddDuration(start, c.cfg.PendingPreviousTimeout)
	if err := e.AwaitNotPendingPrevious(c.cfg.Clock.Now, deadline); err != nil {
		c.cfg.Metrics.ObservePendingPreviousWait(c.cfg.Clock.Now().Sub(start))
		return false, err
	}
	c.cfg.Metrics.ObservePendingPreviousWait(c.cfg.Clock.Now().Sub(start))

	changed := e.UpdatePreviousKey(p, unbound)
	if changed {
		c.cfg.Logger.Debugw("updated previousKey",
			"key", k.String(), "previousKey", p.String(), "unbound", unbound)
	}
	return changed, nil
}

// Evict transitions the entry for k to DECACHED, provided it is not
// mid-fetch/writeback and has no pendingPrevious reference, per the
// eviction policy shared with the LRU path in shard.go. The entry's value
// is left as it was: eviction reflects cache pressure, not a claim that the
// binding itself is gone, so RemovedValue would misrepresent it. Use Remove
// when the binding has actually been deleted upstream.
//
// Removing k changes the relationship between k's successor and k's own
// lower neighbor: the successor's negative-range claim may currently point
// at k itself, which is no longer cached to confirm. Evict loosens that
// claim back to k's lower neighbor under the successor's pendingPrevious
// interlock, mirroring Install's tightening in the opposite direction.
func (c *Cache) Evict(k BindingKey) error {
	_, err := c.decache(k)
	return err
}

// Remove transitions the entry for k to DECACHED and records RemovedValue,
// for the case where the underlying binding has actually been deleted
// rather than merely evicted under cache pressure. Shares Evict's neighbor
// bookkeeping via decache; no entry's value is RemovedValue outside
// DECACHED, and after Remove this one legitimately is.
func (c *Cache) Remove(k BindingKey) error {
	e, err := c.decache(k)
	if err != nil {
		return err
	}
	e.setValue(RemovedValue)
	return nil
}

// decache removes k from the shard, transitions its entry to DECACHED, and
// loosens k's successor's negative-range claim back to k's own lower
// neighbor under the successor's pendingPrevious interlock. Shared by Evict
// and Remove, which differ only in what they do with the entry's value
// afterward.
func (c *Cache) decache(k BindingKey) (*Entry, error) {
	c.s.mu.Lock()
	e, ok := c.s.get(k)
	if !ok {
		c.s.mu.Unlock()
		return nil, ErrEntryNotFound
	}
	if !c.s.evictable(e) {
		c.s.mu.Unlock()
		return nil, ErrBlocked
	}

	successor, hasSuccessor := c.s.higherEntry(k)
	lower, hasLower := c.s.lowerEntry(k)

	c.s.removeLocked(k)
	e.setState(Decached, "")
	c.cfg.Metrics.IncrEviction()
	c.cfg.Metrics.SetEntries(len(c.s.entries))
	c.s.mu.Unlock()

	if hasSuccessor && hasLower {
		c.updateNeighborPreviousKey(successor, lower.Key())
	}
	return e, nil
}

// LowerEntry returns the cached, non-decached entry with the greatest key
// strictly less than k, if any.
func (c *Cache) LowerEntry(k BindingKey) (*Entry, bool) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.lowerEntry(k)
}

func (c *Cache) lookup(k BindingKey) (*Entry, bool) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.get(k)
}

// CheckConsistency walks every live entry and verifies the invariants
// this module depends on: no non-DECACHED entry holds RemovedValue,
// previousKey < key, the cached lower neighbor lies at or before
// previousKey, and the sentinel entries obey their reserved shape. It
// awaits each entry's pendingPrevious interlock before inspecting it,
// matching the debug consistency check the design calls for. A violation
// is a programmer error, reported as panicInvalidState rather than
// returned, consistent with this module's fatal-InvalidState policy.
func (c *Cache) CheckConsistency(ctx context.Context) error {
	c.s.mu.Lock()
	entries := make([]*Entry, len(c.s.entries))
	copy(entries, c.s.entries)
	c.s.mu.Unlock()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		deadline := clock.SaturatingAddDuration(c.cfg.Clock.Now(), c.cfg.PendingPreviousTimeout)
		if err := e.AwaitNotPendingPrevious(c.cfg.Clock.Now, deadline); err != nil {
			return err
		}

		if e.State() != Decached && e.Value() == RemovedValue {
			panicInvalidState("RemovedValue held by non-decached entry " + e.Key().String())
		}

		prev, hasPrev := e.PreviousKey()
		if !hasPrev {
			continue
		}
		if !prev.Less(e.Key()) {
			panicInvalidState("previousKey not less than key for " + e.Key().String())
		}

		lower, hasLower := c.LowerEntry(e.Key())
		if !hasLower {
			continue
		}
		if prev.Less(lower.Key()) {
			panicInvalidState("cached lower entry skipped by negative range for " + e.Key().String())
		}
		if lower.Key().Equal(prev) {
			continue
		}
		if !lower.Key().Less(prev) {
			panicInvalidState("cached lower entry not at or before previousKey for " + e.Key().String())
		}
	}
	return nil
}
