package queue

import (
	"context"
	"sync"

	"github.com/dantel35/reddwarf/logger"
)

// Handler executes a request's payload and returns the result to
// serialize into the ack, or an error to report as a business-level
// failure. A non-nil error here is never retried by the client; it is
// delivered once to the originating request's completion callback.
type Handler func(ctx context.Context, payload []byte) error

// RequestQueueServer is the server-side half of the reliable channel for
// one client node: it tracks lastSeqno, replays cached acks for
// duplicate submissions from a reconnect, and otherwise dispatches to a
// Handler exactly once per seqno.
type RequestQueueServer struct {
	nodeID int64
	cfg    Config
	store  SeqnoStore
	logger logger.Logger

	mu        sync.Mutex
	lastSeqno int32
	ackRing   map[int32]ackFrame
	ackOrder  []int32
	sinceCkpt int
}

// NewServer constructs a RequestQueueServer for nodeID, loading its
// checkpointed lastSeqno from store.
func NewServer(ctx context.Context, nodeID int64, store SeqnoStore, opts ...Option) (*RequestQueueServer, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	last, err := store.LastSeqno(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	return &RequestQueueServer{
		nodeID:    nodeID,
		cfg:       cfg,
		store:     store,
		logger:    cfg.Logger.WithComponent("queue-server").WithNodeID(nodeID),
		lastSeqno: last,
		ackRing:   make(map[int32]ackFrame),
	}, nil
}

// Deliver processes one incoming request frame: if its seqno is a
// duplicate of an already-committed request, it returns the cached ack
// without invoking handler again; otherwise it invokes handler, captures
// any business error, and advances lastSeqno.
func (s *RequestQueueServer) Deliver(ctx context.Context, frame requestFrame, handler Handler) ackFrame {
	s.mu.Lock()
	if frame.Seqno <= s.lastSeqno {
		if cached, ok := s.ackRing[frame.Seqno]; ok {
			s.mu.Unlock()
			s.cfg.Metrics.IncrAck(cached.OK, !cached.OK, true)
			return cached
		}
		// Older than anything retained in the ring: the client's window
		// never overlaps this far back in practice, but report success
		// rather than re-executing a request we no longer have a cached
		// outcome for.
		s.mu.Unlock()
		return ackFrame{Seqno: frame.Seqno, OK: true}
	}
	s.mu.Unlock()

	err := handler(ctx, frame.Payload)

	ack := ackFrame{Seqno: frame.Seqno, OK: err == nil}
	if err != nil {
		ack.Msg = err.Error()
	}

	s.mu.Lock()
	s.lastSeqno = frame.Seqno
	s.cacheAck(ack)
	s.sinceCkpt++
	needCheckpoint := s.sinceCkpt >= s.cfg.CheckpointEvery
	if needCheckpoint {
		s.sinceCkpt = 0
	}
	s.mu.Unlock()

	s.cfg.Metrics.IncrAck(ack.OK, !ack.OK, false)

	if needCheckpoint {
		if cerr := s.store.Checkpoint(ctx, s.nodeID, ack.Seqno); cerr != nil {
			s.logger.Warnw("seqno checkpoint failed", "seqno", ack.Seqno, "error", cerr)
		}
	}
	return ack
}

// cacheAck records ack in the dedupe ring, evicting the oldest entry
// once the ring exceeds DefaultAckRingSize. Must be called with mu held.
func (s *RequestQueueServer) cacheAck(ack ackFrame) {
	s.ackRing[ack.Seqno] = ack
	s.ackOrder = append(s.ackOrder, ack.Seqno)
	if len(s.ackOrder) > DefaultAckRingSize {
		oldest := s.ackOrder[0]
		s.ackOrder = s.ackOrder[1:]
		delete(s.ackRing, oldest)
	}
}

// LastSeqno returns the server's current committed sequence number.
func (s *RequestQueueServer) LastSeqno() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeqno
}
