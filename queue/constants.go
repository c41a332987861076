package queue

import "time"

const (
	// DefaultMaxRetry bounds how long the client will attempt to
	// reconnect without progress before declaring the peer down.
	DefaultMaxRetry = 30 * time.Second

	// DefaultRetryWait is the sleep between reconnect attempts.
	DefaultRetryWait = 500 * time.Millisecond

	// DefaultQueueSize is the default pending FIFO capacity.
	DefaultQueueSize = 256

	// DefaultSentQueueSize is the default sent FIFO capacity. Must be >=
	// the pending queue size, since every pending request eventually
	// moves into sent.
	DefaultSentQueueSize = 256

	// DefaultCheckpointEvery checkpoints lastSeqno after every ack.
	DefaultCheckpointEvery = 1

	// DefaultAckRingSize bounds the server's per-node dedupe ring, which
	// must cover the client's send window (SentQueueSize) so a reconnect
	// replaying in-flight requests never misses a cached ack.
	DefaultAckRingSize = 256
)
