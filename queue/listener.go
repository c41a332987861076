package queue

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dantel35/reddwarf/clock"
	"github.com/dantel35/reddwarf/logger"
	"golang.org/x/time/rate"
)

// ConnectionInfo holds metadata about one accepted client connection,
// tracked the same way the node's RPC-facing connection manager tracks
// its own clients.
type ConnectionInfo struct {
	NodeID       int64
	RemoteAddr   string
	ConnectedAt  time.Time
	LastActive   time.Time
	RequestCount int64
}

// RequestQueueListener accepts client connections, reads each one's
// handshake, and dispatches its frames to the RequestQueueServer
// registered for that node. A reconnecting node reaches the same server;
// the listener does not close an earlier connection from that node, which
// ends when its own reads or writes fail. New connections are admitted
// through a token bucket rate limiter before the handshake is read.
type RequestQueueListener struct {
	cfg     Config
	handler Handler
	limiter *rate.Limiter
	clock   clock.Clock
	logger  logger.Logger

	serversMu sync.Mutex
	servers   map[int64]*RequestQueueServer
	store     SeqnoStore

	connsMu sync.Mutex
	conns   map[string]*ConnectionInfo

	ln net.Listener
}

// NewListener constructs a listener bound to addr. Requests are
// dispatched to handler once a duplicate check against the per-node
// RequestQueueServer has passed; store backs every server's seqno
// checkpointing.
func NewListener(addr string, store SeqnoStore, handler Handler, opts ...Option) (*RequestQueueListener, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	l := &RequestQueueListener{
		cfg:     cfg,
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		clock:   cfg.Clock,
		logger:  cfg.Logger.WithComponent("queue-listener"),
		servers: make(map[int64]*RequestQueueServer),
		store:   store,
		conns:   make(map[string]*ConnectionInfo),
		ln:      ln,
	}
	return l, nil
}

// Addr returns the listener's bound network address.
func (l *RequestQueueListener) Addr() net.Addr { return l.ln.Addr() }

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed.
func (l *RequestQueueListener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !l.limiter.Allow() {
			l.logger.Warnw("rejecting connection: rate limit exceeded", "remote_addr", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}
		go l.handleConn(ctx, conn)
	}
}

// Close stops accepting new connections.
func (l *RequestQueueListener) Close() error { return l.ln.Close() }

func (l *RequestQueueListener) handleConn(ctx context.Context, conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	defer conn.Close()

	hs, err := readHandshake(conn)
	if err != nil {
		l.logger.Debugw("handshake read failed", "remote_addr", remoteAddr, "error", err)
		return
	}

	srv, err := l.serverFor(ctx, hs.NodeID)
	if err != nil {
		l.logger.Errorw("failed to materialize server for node", "node_id", hs.NodeID, "error", err)
		return
	}

	l.onConnect(hs.NodeID, remoteAddr)
	defer l.onDisconnect(remoteAddr)

	for {
		frame, err := readRequestFrame(conn)
		if err != nil {
			return // IOException-equivalent: drop the connection, client reconnects
		}
		l.onRequest(remoteAddr)

		ack := srv.Deliver(ctx, frame, l.handler)
		if err := writeAckFrame(conn, ack); err != nil {
			return
		}
	}
}

// serverFor returns the RequestQueueServer for nodeID, materializing it
// (and loading its checkpointed lastSeqno) on first contact.
func (l *RequestQueueListener) serverFor(ctx context.Context, nodeID int64) (*RequestQueueServer, error) {
	l.serversMu.Lock()
	defer l.serversMu.Unlock()

	if srv, ok := l.servers[nodeID]; ok {
		return srv, nil
	}
	srv, err := NewServer(ctx, nodeID, l.store, withResolvedConfig(l.cfg))
	if err != nil {
		return nil, err
	}
	l.servers[nodeID] = srv
	return srv, nil
}

// withResolvedConfig re-wraps an already-resolved Config as a single
// Option, so NewServer's own option-folding (needed when called
// directly by users) also works for this internal call site.
func withResolvedConfig(cfg Config) Option {
	return func(dst *Config) { *dst = cfg }
}

func (l *RequestQueueListener) onConnect(nodeID int64, remoteAddr string) {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	now := l.clock.Now()
	l.conns[remoteAddr] = &ConnectionInfo{
		NodeID:      nodeID,
		RemoteAddr:  remoteAddr,
		ConnectedAt: now,
		LastActive:  now,
	}
}

func (l *RequestQueueListener) onDisconnect(remoteAddr string) {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	delete(l.conns, remoteAddr)
}

func (l *RequestQueueListener) onRequest(remoteAddr string) {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	if c, ok := l.conns[remoteAddr]; ok {
		c.LastActive = l.clock.Now()
		c.RequestCount++
	}
}

// ActiveConnections returns a snapshot of currently connected clients.
func (l *RequestQueueListener) ActiveConnections() map[string]ConnectionInfo {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	out := make(map[string]ConnectionInfo, len(l.conns))
	for addr, info := range l.conns {
		out[addr] = *info
	}
	return out
}
