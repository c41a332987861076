package cache

import (
	"time"

	"github.com/dantel35/reddwarf/clock"
	"github.com/dantel35/reddwarf/logger"
)

// Option configures a Cache during construction.
type Option func(*Config)

// Config holds configuration parameters for a Cache instance.
//
// Unlike the lock table, the binding cache's key space is not hash-sharded:
// lowerEntry and the pendingPrevious interlock both depend on a single
// total order over cached keys, so this Cache holds one ordered structure
// behind one coarse monitor, relying on each Entry's own monitor (see
// entry.go) for the real per-key concurrency — the same division of labor
// the source material uses (one ordered map, per-entry synchronization).
type Config struct {
	// PendingPreviousTimeout bounds how long a caller will await the
	// pendingPrevious interlock before surfacing ErrTimeout.
	PendingPreviousTimeout time.Duration

	// MaxEntriesPerShard caps how many entries a shard holds before evicting
	// the least-recently-touched one, mirroring the teacher's LRU read
	// cache eviction idiom.
	MaxEntriesPerShard int

	Clock   clock.Clock
	Logger  logger.Logger
	Metrics Metrics
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PendingPreviousTimeout: DefaultPendingPreviousTimeout,
		MaxEntriesPerShard:     DefaultMaxEntriesPerShard,
		Clock:                  clock.New(),
		Logger:                 logger.NewNoOpLogger(),
		Metrics:                NewNoOpMetrics(),
	}
}

// Validate rejects configuration that cannot be used to build a Cache.
func (c Config) Validate() error {
	if c.PendingPreviousTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxEntriesPerShard < 1 {
		return ErrInvalidConfig
	}
	return nil
}

// WithPendingPreviousTimeout sets the interlock await deadline.
func WithPendingPreviousTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.PendingPreviousTimeout = d
		}
	}
}

// WithMaxEntriesPerShard sets the per-shard LRU eviction threshold.
func WithMaxEntriesPerShard(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxEntriesPerShard = n
		}
	}
}

// WithClock overrides the clock used for deadline arithmetic.
func WithClock(c clock.Clock) Option {
	return func(cfg *Config) {
		if c != nil {
			cfg.Clock = c
		}
	}
}

// WithLogger sets the logger for internal events.
func WithLogger(l logger.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithMetrics sets the metrics collector for operational data.
func WithMetrics(m Metrics) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.Metrics = m
		}
	}
}
