package lock

import "time"

const (
	// DefaultNumKeyMaps is the default number of shards the lock table is
	// split across. Each shard owns one monitor; there is no global lock.
	DefaultNumKeyMaps = 8

	// DefaultLockTimeout is the default Config.LockTimeout. Lock's Timeout
	// conflict is driven by the Locker's LockTimeoutTime, not by this value.
	DefaultLockTimeout = 10 * time.Second
)
