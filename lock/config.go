package lock

import (
	"time"

	"github.com/dantel35/reddwarf/clock"
	"github.com/dantel35/reddwarf/logger"
)

// Option configures a Manager during construction.
type Option func(*Config)

// Config holds configuration parameters for a Manager instance.
type Config struct {
	// NumKeyMaps is the number of shards the lock table is split across.
	NumKeyMaps int

	// LockTimeout is validated (must be positive) and stored. Lock's wait
	// deadline comes only from the Locker's own LockTimeoutTime; this value
	// is not consulted when computing it.
	LockTimeout time.Duration

	Clock   clock.Clock
	Logger  logger.Logger
	Metrics Metrics
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		NumKeyMaps:  DefaultNumKeyMaps,
		LockTimeout: DefaultLockTimeout,
		Clock:       clock.New(),
		Logger:      logger.NewNoOpLogger(),
		Metrics:     NewNoOpMetrics(),
	}
}

// Validate rejects configuration that cannot be used to build a Manager,
// matching the spec's "invalid values rejected at construction" rule.
func (c Config) Validate() error {
	if c.NumKeyMaps < 1 {
		return ErrInvalidConfig
	}
	if c.LockTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// WithNumKeyMaps sets the shard count for the lock table.
func WithNumKeyMaps(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.NumKeyMaps = n
		}
	}
}

// WithLockTimeout sets Config.LockTimeout. Lock's wait deadline is taken
// from the Locker's LockTimeoutTime, not from this value.
func WithLockTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.LockTimeout = d
		}
	}
}

// WithClock overrides the clock used for deadline and timestamp arithmetic.
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
