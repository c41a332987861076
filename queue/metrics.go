package queue

import "time"

// Metrics receives operational counters and timings from the client,
// server, and listener halves of the request queue.
type Metrics interface {
	// IncrSend records a request frame written to the socket.
	IncrSend()

	// IncrAck records an ack frame processed, tagged by outcome: success,
	// business failure (RequestFailed), or duplicate (server-side replay
	// suppression).
	IncrAck(success, failed, duplicate bool)

	// IncrReconnect records a client reconnect attempt.
	IncrReconnect()

	// IncrPeerDown records the client giving up and declaring the peer
	// down.
	IncrPeerDown()

	// ObserveRequestLatency records the time from enqueue to ack.
	ObserveRequestLatency(d time.Duration)

	// SetPendingDepth reports the current pending FIFO depth.
	SetPendingDepth(n int)

	// SetSentDepth reports the current sent FIFO depth.
	SetSentDepth(n int)
}
