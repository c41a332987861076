package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dantel35/reddwarf/cache"
	"github.com/dantel35/reddwarf/lock"
	"github.com/dantel35/reddwarf/queue"
)

// sessionLocker is the lock.Locker a single simulated client session holds
// for the lifetime of one transaction. A fresh one is minted per attempt so
// a timed-out session never lingers in the manager's bookkeeping under a
// stale ID.
type sessionLocker struct {
	id      string
	timeout time.Duration
}

func newSessionLocker(timeout time.Duration) *sessionLocker {
	return &sessionLocker{id: uuid.NewString(), timeout: timeout}
}

func (l *sessionLocker) ID() string { return l.id }

func (l *sessionLocker) LockTimeoutTime(now time.Time) time.Time {
	return now.Add(l.timeout)
}

// demoStats aggregates outcomes across every worker for the closing report.
type demoStats struct {
	cacheHits      int64
	cacheMisses    int64
	lockConflicts  int64
	lockTimeouts   int64
	deadlocks      int64
	queueSubmitted int64
	queueFailed    int64
	transactions   int64
}

func (s *demoStats) snapshot() demoStats {
	return demoStats{
		cacheHits:      atomic.LoadInt64(&s.cacheHits),
		cacheMisses:    atomic.LoadInt64(&s.cacheMisses),
		lockConflicts:  atomic.LoadInt64(&s.lockConflicts),
		lockTimeouts:   atomic.LoadInt64(&s.lockTimeouts),
		deadlocks:      atomic.LoadInt64(&s.deadlocks),
		queueSubmitted: atomic.LoadInt64(&s.queueSubmitted),
		queueFailed:    atomic.LoadInt64(&s.queueFailed),
		transactions:   atomic.LoadInt64(&s.transactions),
	}
}

// bindingStore fronts the cache, lock manager, and request queue client
// with the access pattern a client-level session actually uses: acquire a
// lock for the name in play, consult or populate the binding cache, and
// durably submit the resulting write through the queue before releasing.
type bindingStore struct {
	cache   *cache.Cache
	locks   *lock.Manager
	client  *queue.RequestQueueClient
	stats   *demoStats
	timeout time.Duration
}

// runTransaction simulates one client operation against a random name in
// the configured keyspace: reads and writes both consult the cache first,
// and on a miss install a fresh binding and submit it through the request
// queue for durability.
func (b *bindingStore) runTransaction(ctx context.Context, rng *rand.Rand, keyspace int) error {
	name := fmt.Sprintf("object-%d", rng.Intn(keyspace))
	forWrite := rng.Intn(10) < 3
	key := cache.Key(name)

	locker := newSessionLocker(b.timeout)
	startTime := time.Now().UnixNano()
	lockKey := lock.Key(key.String())

	conflict, err := b.locks.Lock(ctx, locker, lockKey, forWrite, startTime)
	if err != nil {
		return err
	}
	if conflict != nil {
		switch conflict.Type {
		case lock.Deadlock:
			atomic.AddInt64(&b.stats.deadlocks, 1)
		case lock.Timeout:
			atomic.AddInt64(&b.stats.lockTimeouts, 1)
		default:
			atomic.AddInt64(&b.stats.lockConflicts, 1)
		}
		return conflict
	}
	defer func() {
		_ = b.locks.ReleaseLock(locker, lockKey)
	}()

	entry, err := b.cache.Get(key, forWrite)
	switch {
	case err == nil:
		atomic.AddInt64(&b.stats.cacheHits, 1)
		_ = entry
	case errors.Is(err, cache.ErrMiss), errors.Is(err, cache.ErrEntryNotFound):
		atomic.AddInt64(&b.stats.cacheMisses, 1)
		if err := b.populate(ctx, key, name); err != nil {
			return err
		}
	default:
		return err
	}

	atomic.AddInt64(&b.stats.transactions, 1)
	return nil
}

// populate installs a fresh binding for name and submits it through the
// request queue, mirroring a client that resolves a name against the
// server and then durably records the result before trusting the cache
// entry it just created.
func (b *bindingStore) populate(ctx context.Context, key cache.BindingKey, name string) error {
	objectID := objectIDFor(name)
	if _, err := b.cache.Install(key, objectID, true, ctx, uuid.NewString()); err != nil {
		return err
	}

	done := make(chan error, 1)
	req := &queue.Request{
		Payload: []byte(fmt.Sprintf("bind %s=%d", name, objectID)),
		Complete: func(err error) {
			done <- err
		},
	}
	if err := b.client.AddRequest(req); err != nil {
		atomic.AddInt64(&b.stats.queueFailed, 1)
		return err
	}
	atomic.AddInt64(&b.stats.queueSubmitted, 1)

	select {
	case err := <-done:
		if err != nil {
			atomic.AddInt64(&b.stats.queueFailed, 1)
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// objectIDFor derives a stable positive int64 object identifier from a
// binding name, standing in for the identifier a real server would assign.
func objectIDFor(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	id := int64(h.Sum64() &^ (1 << 63))
	if id == 0 {
		id = 1
	}
	return id
}

// runWorkers drives count sessions concurrently, each running txnsPerWorker
// transactions against the shared store, and returns once every worker has
// finished.
func runWorkers(ctx context.Context, store *bindingStore, count, txnsPerWorker, keyspace int) {
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < txnsPerWorker; j++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				_ = store.runTransaction(ctx, rng, keyspace)
			}
		}(int64(i) + 1)
	}
	wg.Wait()
}
