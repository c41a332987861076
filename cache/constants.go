package cache

import "time"

const (
	// DefaultPendingPreviousTimeout bounds how long a caller awaits the
	// pendingPrevious interlock before surfacing ErrTimeout.
	DefaultPendingPreviousTimeout = 10 * time.Second

	// DefaultMaxEntriesPerShard caps per-shard entry count before LRU
	// eviction kicks in.
	DefaultMaxEntriesPerShard = 10000
)
