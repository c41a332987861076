package queue

import (
	"testing"
	"time"

	"github.com/dantel35/reddwarf/testutil"
)

func TestFIFO_PushAndDrainAll(t *testing.T) {
	f := newFIFO(4)
	stop := make(chan struct{})
	testutil.AssertNoError(t, f.push(&Request{Payload: []byte("a")}, stop))
	testutil.AssertNoError(t, f.push(&Request{Payload: []byte("b")}, stop))

	items := f.drainAll()
	testutil.AssertEqual(t, 2, len(items))
	testutil.AssertEqual(t, 0, f.len())
}

func TestFIFO_PushBlocksUntilRoom(t *testing.T) {
	f := newFIFO(1)
	stop := make(chan struct{})
	testutil.AssertNoError(t, f.push(&Request{}, stop))

	blocked := make(chan error, 1)
	go func() {
		blocked <- f.push(&Request{}, stop)
	}()

	select {
	case <-blocked:
		t.Fatal("push should have blocked while fifo is full")
	case <-time.After(50 * time.Millisecond):
	}

	f.drainAll()
	select {
	case err := <-blocked:
		testutil.AssertNoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("push never unblocked after room freed")
	}
}

func TestFIFO_PushFrontPreservesOrder(t *testing.T) {
	f := newFIFO(4)
	stop := make(chan struct{})
	a := &Request{Payload: []byte("a")}
	b := &Request{Payload: []byte("b")}
	c := &Request{Payload: []byte("c")}

	testutil.AssertNoError(t, f.push(c, stop))
	f.pushFront([]*Request{a, b})

	items := f.drainAll()
	testutil.AssertEqual(t, 3, len(items))
	testutil.AssertTrue(t, items[0] == a)
	testutil.AssertTrue(t, items[1] == b)
	testutil.AssertTrue(t, items[2] == c)
}

func TestFIFO_CloseAndDrain_FailsFuturePush(t *testing.T) {
	f := newFIFO(4)
	stop := make(chan struct{})
	testutil.AssertNoError(t, f.push(&Request{}, stop))

	remaining := f.closeAndDrain()
	testutil.AssertEqual(t, 1, len(remaining))

	err := f.push(&Request{}, stop)
	testutil.AssertErrorIs(t, err, ErrShutdown)
}

func TestFIFO_PushUnblocksOnStop(t *testing.T) {
	f := newFIFO(1)
	stop := make(chan struct{})
	testutil.AssertNoError(t, f.push(&Request{}, stop))

	done := make(chan error, 1)
	go func() {
		done <- f.push(&Request{}, stop)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case err := <-done:
		testutil.AssertErrorIs(t, err, ErrShutdown)
	case <-time.After(time.Second):
		t.Fatal("push never unblocked on stop")
	}
}
