package cache

import (
	"container/list"
	"sort"
	"sync"
)

// shard owns a slice of the key space: a sorted slice of entries for
// O(log n) neighbor lookups (lowerEntry), an index map for O(1) exact
// lookups, and an LRU list for capacity-bounded eviction. All three are
// mutated together under mu — this is the shard monitor the design notes
// call for; no linear scan is used to find a predecessor.
//
// A sorted slice plus binary search was chosen over a skiplist: insertion
// is O(n) rather than O(log n), but the corpus carries no concurrent
// ordered-map/skiplist dependency to ground one on, and this module's
// shard sizes (bounded by MaxEntriesPerShard) keep the shift cost small in
// practice. See DESIGN.md for the justification.
type shard struct {
	mu sync.Mutex

	entries []*Entry // sorted ascending by key, including the Last sentinel
	index   map[BindingKey]*Entry

	lru      *list.List
	lruElems map[BindingKey]*list.Element

	maxEntries int
}

func newShard(maxEntries int) *shard {
	return &shard{
		index:      make(map[BindingKey]*Entry),
		lru:        list.New(),
		lruElems:   make(map[BindingKey]*list.Element),
		maxEntries: maxEntries,
	}
}

// get returns the entry for key, if present. Must be called with mu held.
func (s *shard) get(key BindingKey) (*Entry, bool) {
	e, ok := s.index[key]
	return e, ok
}

// insertionIndex returns the slice index at which key belongs, via binary
// search over s.entries.
func (s *shard) insertionIndex(key BindingKey) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return key.Less(s.entries[i].key)
	})
}

// lowerEntry returns the cached entry with the greatest key strictly less
// than key, skipping DECACHED entries per this module's resolution of the
// source's open question. Must be called with mu held.
func (s *shard) lowerEntry(key BindingKey) (*Entry, bool) {
	idx := s.insertionIndex(key)
	for i := idx - 1; i >= 0; i-- {
		if s.entries[i].State() != Decached {
			return s.entries[i], true
		}
	}
	return nil, false
}

// higherEntry returns the cached entry with the smallest key strictly
// greater than key, skipping DECACHED entries. The LAST sentinel, which is
// never evicted, guarantees this always finds something for any key below
// it. Must be called with mu held.
func (s *shard) higherEntry(key BindingKey) (*Entry, bool) {
	idx := s.insertionIndex(key)
	for i := idx; i < len(s.entries); i++ {
		if s.entries[i].State() != Decached {
			return s.entries[i], true
		}
	}
	return nil, false
}

// insert adds a new entry in sorted position, updates the index and LRU,
// and evicts the least-recently-touched entry if the shard is now over
// capacity. Must be called with mu held.
func (s *shard) insert(e *Entry) {
	idx := s.insertionIndex(e.key)
	s.entries = append(s.entries, nil)
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = e

	s.index[e.key] = e
	s.lruElems[e.key] = s.lru.PushFront(e.key)

	s.evictIfOverCapacity()
}

// touch moves key to the front of the LRU list. Must be called with mu
// held.
func (s *shard) touch(key BindingKey) {
	if el, ok := s.lruElems[key]; ok {
		s.lru.MoveToFront(el)
	}
}

// evictIfOverCapacity evicts from the back of the LRU list until the shard
// is within MaxEntriesPerShard, stopping at the first LRU tail entry that
// is not safely evictable (see evictable). Must be called with mu held.
func (s *shard) evictIfOverCapacity() {
	for len(s.entries) > s.maxEntries {
		el := s.lru.Back()
		if el == nil {
			return
		}
		key := el.Value.(BindingKey)
		e, ok := s.index[key]
		if !ok || !s.evictable(e) {
			// Can't evict the LRU tail right now; stop rather than spin
			// past entries that are pinned, matching the cache's stated
			// policy that eviction never forces out a referenced entry.
			return
		}
		s.removeLocked(key)
	}
}

// evictable reports whether e may be evicted: not mid-fetch and not the
// target of an in-flight pendingPrevious operation.
func (s *shard) evictable(e *Entry) bool {
	switch e.State() {
	case FetchingRead, FetchingWrite, Writing:
		return false
	}
	if e.key.IsLast() {
		return false
	}
	return !e.PendingPrevious()
}

// removeLocked deletes key from every shard structure and transitions the
// entry to DECACHED. Must be called with mu held.
func (s *shard) removeLocked(key BindingKey) {
	if e, ok := s.index[key]; ok {
		e.setState(Decached, "")
	}
	idx := s.insertionIndex(key)
	if idx < len(s.entries) && s.entries[idx].key.Equal(key) {
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	}
	delete(s.index, key)
	if el, ok := s.lruElems[key]; ok {
		s.lru.Remove(el)
		delete(s.lruElems, key)
	}
}
