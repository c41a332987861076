package queue

import (
	"context"
	"sync"
	"time"
)

// RequestQueueClient drives the reliable channel to one server node: a
// pending FIFO of unsent requests, a sent FIFO of requests shipped but
// not yet acknowledged, and a single background worker that owns the
// socket, the seqno counter, and the sent window. Callers only ever touch
// pending, through AddRequest.
type RequestQueueClient struct {
	nodeID int64
	addr   string
	cfg    Config

	pending   *fifo
	sent      []*Request // owned exclusively by run(); never touched elsewhere
	nextSeqno int32

	lastProgress time.Time

	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	closed  bool
	downErr error
}

// NewClient constructs a RequestQueueClient for the peer at addr,
// identified to that peer by nodeID, and starts its background worker.
func NewClient(nodeID int64, addr string, opts ...Option) (*RequestQueueClient, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &RequestQueueClient{
		nodeID:       nodeID,
		addr:         addr,
		cfg:          cfg,
		pending:      newFIFO(cfg.QueueSize),
		nextSeqno:    1,
		lastProgress: cfg.Clock.Now(),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// AddRequest enqueues r for delivery, blocking while the pending FIFO is
// full. Returns ErrShutdown if the client has been shut down; r.Complete
// is never invoked in that case, since the caller's own call already
// failed synchronously.
func (c *RequestQueueClient) AddRequest(r *Request) error {
	c.mu.Lock()
	downErr := c.downErr
	c.mu.Unlock()
	if downErr != nil {
		return downErr
	}
	return c.pending.push(r, c.stopCh)
}

// Shutdown stops the worker, closes the socket, and completes every
// request still outstanding (queued or sent) with ErrCancelled. Queued
// requests are cancelled without being sent first. After Shutdown
// returns, AddRequest always fails.
func (c *RequestQueueClient) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
	<-c.doneCh
}

func (c *RequestQueueClient) run() {
	defer close(c.doneCh)

	for {
		select {
		case <-c.stopCh:
			c.drainAndCancelAll()
			return
		default:
		}

		sock, ackCh, errCh, ok := c.connectLoop()
		if !ok {
			return
		}

		if !c.sendAndReceiveLoop(sock, ackCh, errCh) {
			return
		}
		_ = sock.Close()
	}
}

// connectLoop dials and handshakes, retrying every RetryWait until it
// succeeds, the client is shut down, or MaxRetry elapses without a
// successful connection.
func (c *RequestQueueClient) connectLoop() (Socket, chan ackFrame, chan error, bool) {
	ctx := context.Background()
	for {
		sock, err := c.cfg.SocketFactory.Dial(ctx, c.addr)
		if err == nil {
			if err = writeHandshake(sock, Handshake{NodeID: c.nodeID}); err == nil {
				c.lastProgress = c.cfg.Clock.Now()
				c.cfg.Metrics.IncrReconnect()
				ackCh := make(chan ackFrame, 1)
				errCh := make(chan error, 1)
				go readAcksLoop(sock, ackCh, errCh)
				return sock, ackCh, errCh, true
			}
			_ = sock.Close()
		}

		if c.cfg.Clock.Now().Sub(c.lastProgress) >= c.cfg.MaxRetry {
			c.declarePeerDown()
			return nil, nil, nil, false
		}

		select {
		case <-c.stopCh:
			c.drainAndCancelAll()
			return nil, nil, nil, false
		case <-c.cfg.Clock.After(c.cfg.RetryWait):
		}
	}
}

// sendAndReceiveLoop drains pending and writes requests, then waits for
// the next ack, until the socket errors (returns true so the caller
// reconnects) or the client is shut down (returns false).
func (c *RequestQueueClient) sendAndReceiveLoop(sock Socket, ackCh chan ackFrame, errCh chan error) bool {
	for {
		select {
		case <-c.stopCh:
			_ = sock.Close()
			c.drainAndCancelAll()
			return false
		default:
		}

		toSend := c.pending.drainAll()
		if room := c.cfg.SentQueueSize - len(c.sent); len(toSend) > room {
			c.pending.pushFront(toSend[room:])
			toSend = toSend[:room]
		}
		for i, r := range toSend {
			// A request keeps the seqno it was first assigned across
			// reconnects: the server's dedupe-by-seqno ring only
			// recognizes a resend as a duplicate if it arrives under the
			// same number it originally committed under.
			if r.seqno == 0 {
				r.seqno = c.nextSeqno
				c.nextSeqno++
			}
			if err := writeRequestFrame(sock, requestFrame{Seqno: r.seqno, Payload: r.Payload}); err != nil {
				c.requeueSent(toSend[i:])
				return true
			}
			c.sent = append(c.sent, r)
			c.cfg.Metrics.IncrSend()
		}
		c.cfg.Metrics.SetPendingDepth(c.pending.len())
		c.cfg.Metrics.SetSentDepth(len(c.sent))

		select {
		case ack := <-ackCh:
			c.handleAck(ack)
			c.lastProgress = c.cfg.Clock.Now()
		case <-errCh:
			c.requeueSent(nil)
			return true
		case <-c.stopCh:
			_ = sock.Close()
			c.drainAndCancelAll()
			return false
		case <-c.cfg.Clock.After(c.cfg.RetryWait):
			if c.cfg.Clock.Now().Sub(c.lastProgress) >= c.cfg.MaxRetry {
				c.declarePeerDown()
				return false
			}
		}
	}
}

// handleAck pops requests from the head of sent up to and including
// ack.Seqno, completing each with nil except the last, which receives
// the ack's own outcome.
func (c *RequestQueueClient) handleAck(ack ackFrame) {
	idx := -1
	for i, r := range c.sent {
		if r.seqno == ack.Seqno {
			idx = i
			break
		}
	}
	if idx < 0 {
		return // stale ack for a seqno no longer tracked (duplicate from before a reconnect)
	}

	for i := 0; i < idx; i++ {
		c.sent[i].complete(nil)
	}

	var ackErr error
	if !ack.OK {
		ackErr = &RequestFailedError{Message: ack.Msg}
	}
	c.sent[idx].complete(ackErr)
	c.cfg.Metrics.IncrAck(ack.OK, !ack.OK, false)

	c.sent = c.sent[idx+1:]
}

// requeueSent prepends every unacked request from c.sent, followed by
// unwritten (in original order), back onto pending ahead of any request a
// caller may have enqueued since — restoring submission order across the
// reconnect per this package's ordering guarantee.
func (c *RequestQueueClient) requeueSent(unwritten []*Request) {
	if len(c.sent) == 0 && len(unwritten) == 0 {
		return
	}
	combined := make([]*Request, 0, len(c.sent)+len(unwritten))
	combined = append(combined, c.sent...)
	combined = append(combined, unwritten...)
	c.sent = nil
	c.pending.pushFront(combined)
}

func (c *RequestQueueClient) declarePeerDown() {
	c.mu.Lock()
	c.downErr = ErrPeerDown
	c.mu.Unlock()
	c.cfg.Metrics.IncrPeerDown()

	for _, r := range c.sent {
		r.complete(ErrPeerDown)
	}
	c.sent = nil
	for _, r := range c.pending.closeAndDrain() {
		r.complete(ErrPeerDown)
	}
}

func (c *RequestQueueClient) drainAndCancelAll() {
	for _, r := range c.sent {
		r.complete(ErrCancelled)
	}
	c.sent = nil
	for _, r := range c.pending.closeAndDrain() {
		r.complete(ErrCancelled)
	}
}

func readAcksLoop(sock Socket, ackCh chan<- ackFrame, errCh chan<- error) {
	for {
		f, err := readAckFrame(sock)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		ackCh <- f
	}
}

// RequestFailedError wraps a business-level failure message serialized
// into an ack by the server's performRequest dispatch. It is never
// retried automatically.
type RequestFailedError struct {
	Message string
}

func (e *RequestFailedError) Error() string { return "queue: request failed: " + e.Message }
