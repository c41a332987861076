package queue

import (
	"time"

	"github.com/dantel35/reddwarf/clock"
	"github.com/dantel35/reddwarf/logger"
)

// Option configures a RequestQueueClient or RequestQueueListener during
// construction.
type Option func(*Config)

// Config holds the client and server configuration recognized by this
// package, named after the original configuration keys (max.retry,
// retry.wait, queue.size, sent.queue.size).
type Config struct {
	// MaxRetry bounds how long the client reconnect loop may run without
	// progress before it reports the peer down.
	MaxRetry time.Duration

	// RetryWait is the sleep between reconnect attempts.
	RetryWait time.Duration

	// QueueSize is the capacity of the pending FIFO.
	QueueSize int

	// SentQueueSize is the capacity of the sent window (requests written
	// but not yet acked); must be >= QueueSize.
	SentQueueSize int

	// CheckpointEvery controls how many acks the server batches between
	// SeqnoStore checkpoints. 1 checkpoints after every ack.
	CheckpointEvery int

	// RateLimitPerSecond and RateLimitBurst configure the listener's
	// accept-side token bucket, grounded on the same rate.Limiter wiring
	// the teacher uses for its RPC-facing rate limiter.
	RateLimitPerSecond float64
	RateLimitBurst     int

	SocketFactory SocketFactory
	Clock         clock.Clock
	Logger        logger.Logger
	Metrics       Metrics
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetry:           DefaultMaxRetry,
		RetryWait:          DefaultRetryWait,
		QueueSize:          DefaultQueueSize,
		SentQueueSize:      DefaultSentQueueSize,
		CheckpointEvery:    DefaultCheckpointEvery,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     100,
		SocketFactory:      NewDialSocketFactory(),
		Clock:              clock.New(),
		Logger:             logger.NewNoOpLogger(),
		Metrics:            NewNoOpMetrics(),
	}
}

// Validate rejects configuration that cannot be used to build a client or
// listener, per this package's "invalid values (<1) rejected at
// construction" requirement.
func (c Config) Validate() error {
	if c.MaxRetry <= 0 || c.RetryWait <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize < 1 || c.SentQueueSize < 1 {
		return ErrInvalidConfig
	}
	if c.SentQueueSize < c.QueueSize {
		return ErrInvalidConfig
	}
	if c.CheckpointEvery < 1 {
		return ErrInvalidConfig
	}
	return nil
}

func WithMaxRetry(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.MaxRetry = d
		}
	}
}

func WithRetryWait(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.RetryWait = d
		}
	}
}

func WithQueueSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.QueueSize = n
		}
	}
}

func WithSentQueueSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.SentQueueSize = n
		}
	}
}

func WithCheckpointEvery(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.CheckpointEvery = n
		}
	}
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *Config) {
		if perSecond > 0 {
			cfg.RateLimitPerSecond = perSecond
		}
		if burst > 0 {
			cfg.RateLimitBurst = burst
		}
	}
}

func WithSocketFactory(f SocketFactory) Option {
	return func(cfg *Config) {
		if f != nil {
			cfg.SocketFactory = f
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(cfg *Config) {
		if c != nil {
			cfg.Clock = c
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.Metrics = m
		}
	}
}
