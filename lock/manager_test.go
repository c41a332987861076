package lock

import (
	"context"
	"testing"
	"time"

	"github.com/dantel35/reddwarf/testutil"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(WithNumKeyMaps(2), WithLockTimeout(200*time.Millisecond))
	testutil.AssertNoError(t, err)
	return m
}

func TestManager_GrantUncontested(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)

	c, err := m.Lock(context.Background(), a, "k", true, 1)
	testutil.AssertNoError(t, err)
	if c != nil {
		t.Fatalf("expected grant, got conflict %v", c)
	}
	owners := m.GetOwners("k")
	testutil.AssertLen(t, owners, 1)
}

func TestManager_ReadersCompatible(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", time.Second)

	c1, _ := m.Lock(context.Background(), a, "k", false, 1)
	c2, _ := m.Lock(context.Background(), b, "k", false, 2)
	if c1 != nil || c2 != nil {
		t.Fatalf("expected both readers granted, got %v %v", c1, c2)
	}
	testutil.AssertLen(t, m.GetOwners("k"), 2)
}

func TestManager_WriterExcludesReader(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", 50*time.Millisecond)

	c1, _ := m.Lock(context.Background(), a, "k", true, 1)
	if c1 != nil {
		t.Fatalf("expected writer a granted, got %v", c1)
	}

	c2 := m.LockNoWait(b, "k", false, 2)
	if c2 == nil || c2.Type != Blocked {
		t.Fatalf("expected Blocked, got %v", c2)
	}
}

func TestManager_LockNoWaitThenWaitForLock(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", time.Second)

	m.Lock(context.Background(), a, "k", true, 1)

	c := m.LockNoWait(b, "k", true, 2)
	if c == nil || c.Type != Blocked {
		t.Fatalf("expected Blocked, got %v", c)
	}

	done := make(chan *Conflict, 1)
	go func() {
		res, _ := m.WaitForLock(context.Background(), b)
		done <- res
	}()

	time.Sleep(20 * time.Millisecond)
	testutil.AssertNoError(t, m.ReleaseLock(a, "k"))

	select {
	case res := <-done:
		if res != nil {
			t.Fatalf("expected b granted after release, got %v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForLock did not return")
	}
	testutil.AssertLen(t, m.GetOwners("k"), 1)
}

func TestManager_WaitForLock_ErrNotWaiting(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	_, err := m.WaitForLock(context.Background(), a)
	testutil.AssertErrorIs(t, err, ErrNotWaiting)
}

func TestManager_Timeout(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", 30*time.Millisecond)

	m.Lock(context.Background(), a, "k", true, 1)
	start := time.Now()
	c, err := m.Lock(context.Background(), b, "k", true, 2)
	testutil.AssertNoError(t, err)
	if c == nil || c.Type != Timeout {
		t.Fatalf("expected Timeout, got %v", c)
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("returned too early: %v", time.Since(start))
	}
	testutil.AssertLen(t, m.GetWaiters("k"), 0)
}

func TestManager_TimestampFairness(t *testing.T) {
	m := newTestManager(t)
	holder := newTestLocker("holder", time.Second)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", time.Second)
	c := newTestLocker("c", time.Second)

	m.Lock(context.Background(), holder, "k", true, 0)

	resultsCh := make(chan string, 3)
	for _, pair := range []struct {
		l  *testLocker
		ts int64
	}{{a, 1}, {b, 5}} {
		go func(l *testLocker, ts int64) {
			m.Lock(context.Background(), l, "k", true, ts)
			resultsCh <- l.ID()
			m.ReleaseLock(l, "k")
		}(pair.l, pair.ts)
	}
	time.Sleep(20 * time.Millisecond) // let a, b enqueue

	go func() {
		m.Lock(context.Background(), c, "k", true, 2)
		resultsCh <- c.ID()
		m.ReleaseLock(c, "k")
	}()
	time.Sleep(20 * time.Millisecond) // let c enqueue behind a, ahead of b

	testutil.AssertNoError(t, m.ReleaseLock(holder, "k"))

	var order []string
	for i := 0; i < 3; i++ {
		select {
		case id := <-resultsCh:
			order = append(order, id)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for grant order")
		}
	}
	testutil.AssertEqual(t, []string{"a", "c", "b"}, order)
}

func TestManager_Deadlock(t *testing.T) {
	m := newTestManager(t)
	l1 := newTestLocker("l1", time.Second)
	l2 := newTestLocker("l2", time.Second)

	testutil.AssertNoError(t, mustGrant(t, m, l1, "x", true, 1))
	testutil.AssertNoError(t, mustGrant(t, m, l2, "y", true, 2))

	resultsCh := make(chan *Conflict, 2)
	go func() {
		c, _ := m.Lock(context.Background(), l1, "y", true, 1)
		resultsCh <- c
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		c, _ := m.Lock(context.Background(), l2, "x", true, 2)
		resultsCh <- c
	}()

	var deadlocks int
	for i := 0; i < 2; i++ {
		select {
		case c := <-resultsCh:
			if c != nil && c.Type == Deadlock {
				deadlocks++
			}
		case <-time.After(2 * time.Second):
			t.Fatal("deadlock was never detected")
		}
	}
	testutil.AssertEqual(t, 1, deadlocks)
}

func mustGrant(t *testing.T, m *Manager, l Locker, key Key, forWrite bool, ts int64) error {
	t.Helper()
	c, err := m.Lock(context.Background(), l, key, forWrite, ts)
	if c != nil {
		t.Fatalf("expected grant for %s, got conflict %v", l.ID(), c)
	}
	return err
}

func TestManager_ReleaseLock_NotHeld(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	err := m.ReleaseLock(a, "nope")
	testutil.AssertErrorIs(t, err, ErrLockNotHeld)
}

func TestManager_Downgrade(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	b := newTestLocker("b", time.Second)

	m.Lock(context.Background(), a, "k", true, 1)
	testutil.AssertNoError(t, m.Downgrade(a, "k"))

	c, _ := m.Lock(context.Background(), b, "k", false, 2)
	if c != nil {
		t.Fatalf("expected reader granted after downgrade, got %v", c)
	}
	testutil.AssertLen(t, m.GetOwners("k"), 2)
}

func TestManager_LockEmptiesShardOnFullRelease(t *testing.T) {
	m := newTestManager(t)
	a := newTestLocker("a", time.Second)
	m.Lock(context.Background(), a, "k", true, 1)
	testutil.AssertNoError(t, m.ReleaseLock(a, "k"))
	s := m.Stats()
	testutil.AssertEqual(t, 0, s.ActiveLocks)
	testutil.AssertEqual(t, 0, s.TotalWaiters)
}
