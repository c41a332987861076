package cache

import "time"

// Metrics receives operational counters and timings from a Cache. The
// no-op and Prometheus implementations mirror the lock package's, which in
// turn mirrors the metrics surface the teacher exposes for its own caches.
type Metrics interface {
	// IncrLookup records a Get outcome: hit (value found in-cache), miss
	// (known unbound via negative range), or blocked (fetch in flight).
	// All three false means no entry and no covering negative range.
	IncrLookup(hit, miss, blocked bool)

	// IncrEviction records an entry decached by Evict or Remove. Entries
	// dropped by the shard's LRU capacity bound are not counted.
	IncrEviction()

	// ObservePendingPreviousWait records how long a caller waited on the
	// pendingPrevious interlock before it cleared or timed out.
	ObservePendingPreviousWait(d time.Duration)

	// SetEntries reports the current number of live (non-decached) entries.
	SetEntries(count int)
}
