package cache

import (
	"testing"

	"github.com/dantel35/reddwarf/testutil"
)

func TestShard_InsertAndGet(t *testing.T) {
	s := newShard(10)
	e := newEntry(Key("m"), 1, CachedRead, "")
	s.mu.Lock()
	s.insert(e)
	got, ok := s.get(Key("m"))
	s.mu.Unlock()
	testutil.AssertTrue(t, ok)
	testutil.AssertTrue(t, got == e)
}

func TestShard_LowerEntry_SkipsDecached(t *testing.T) {
	s := newShard(10)
	a := newEntry(Key("a"), 1, CachedRead, "")
	b := newEntry(Key("b"), 2, Decached, "")
	m := newEntry(Key("m"), 3, CachedRead, "")

	s.mu.Lock()
	s.insert(a)
	s.insert(b)
	s.insert(m)
	lower, ok := s.lowerEntry(Key("m"))
	s.mu.Unlock()

	testutil.AssertTrue(t, ok)
	testutil.AssertTrue(t, lower.Key().Equal(Key("a")))
}

func TestShard_LowerEntry_NoneBelow(t *testing.T) {
	s := newShard(10)
	a := newEntry(Key("a"), 1, CachedRead, "")
	s.mu.Lock()
	s.insert(a)
	_, ok := s.lowerEntry(Key("a"))
	s.mu.Unlock()
	testutil.AssertFalse(t, ok)
}

func TestShard_EvictionRespectsCapacity(t *testing.T) {
	s := newShard(2)
	a := newEntry(Key("a"), 1, CachedRead, "")
	b := newEntry(Key("b"), 2, CachedRead, "")
	c := newEntry(Key("c"), 3, CachedRead, "")

	s.mu.Lock()
	s.insert(a)
	s.insert(b)
	s.insert(c)
	_, aPresent := s.get(Key("a"))
	_, cPresent := s.get(Key("c"))
	count := len(s.entries)
	s.mu.Unlock()

	testutil.AssertFalse(t, aPresent)
	testutil.AssertTrue(t, cPresent)
	testutil.AssertEqual(t, 2, count)
}

func TestShard_EvictionSkipsPinnedEntries(t *testing.T) {
	s := newShard(1)
	a := newEntry(Key("a"), 1, FetchingRead, "")
	b := newEntry(Key("b"), 2, CachedRead, "")

	s.mu.Lock()
	s.insert(a)
	s.insert(b)
	_, aPresent := s.get(Key("a"))
	s.mu.Unlock()

	testutil.AssertTrue(t, aPresent)
}

func TestShard_RemoveLocked(t *testing.T) {
	s := newShard(10)
	a := newEntry(Key("a"), 1, CachedRead, "")
	s.mu.Lock()
	s.insert(a)
	s.removeLocked(Key("a"))
	_, ok := s.get(Key("a"))
	count := len(s.entries)
	s.mu.Unlock()
	testutil.AssertFalse(t, ok)
	testutil.AssertEqual(t, 0, count)
}
