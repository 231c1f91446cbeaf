// Package server implements the TCP accept loop and per-connection RESP
// read loop, generalized from the teacher's internal/server.RedisServer
// (Start/acceptConnections/handleConnection) and internal/handler's
// Handle/HandlePipeline read loop. The teacher's cluster/replication/
// sentinel wiring that used to live alongside the accept loop is gone —
// this rewrite is single-node only (spec.md §1 Non-goals) — but the
// shape of "listen, accept, spawn a per-connection goroutine, track it
// for graceful shutdown" survives largely unchanged.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"kvprotod/internal/dispatch"
	"kvprotod/internal/introspect"
	"kvprotod/internal/log"
	"kvprotod/internal/protocol"
	"kvprotod/internal/pubsub"
)

// Config bundles the listener-level settings the server needs, trimmed
// down from the teacher's internal/server.Config to just what an accept
// loop and read loop use directly — everything else (persistence,
// memory budget, logging format) is config.Snapshot fields consumed
// elsewhere during wiring.
type Config struct {
	Host string
	Port int

	ReadBufferSize int
	// MaxConnections caps concurrent clients; 0 means unbounded, matching
	// the teacher's activeConnCount/MaxConnections check.
	MaxConnections int
	// ReadTimeout is the idle read deadline per connection; 0 disables it.
	ReadTimeout time.Duration
}

// Server owns the listener and the set of live connections, the way the
// teacher's RedisServer does, but delegates all command execution to a
// dispatch.Engine instead of holding a processor/handler pair itself.
type Server struct {
	cfg     Config
	engine  *dispatch.Engine
	metrics *introspect.Registry
	log     *log.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn

	activeConns  atomic.Int64
	shuttingDown atomic.Bool
	wg           sync.WaitGroup
}

// New builds a Server. engine must already be running (dispatch.New
// starts its executor goroutine); metrics may be nil if introspection
// is disabled.
func New(cfg Config, engine *dispatch.Engine, metrics *introspect.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
		log:     logger,
		conns:   make(map[string]net.Conn),
	}
}

// ListenAndServe binds the configured address and runs the accept loop
// until Shutdown is called or Accept returns a non-transient error. It
// installs itself as the engine's shutdown hook, so a client-issued
// SHUTDOWN command (spec.md §4.9) tears the listener and connections
// down the same way an operator-initiated Shutdown call does.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.engine.SetShutdownHook(func() { s.Shutdown() })

	s.log.Infow("listening", "addr", addr)
	s.acceptLoop()
	return nil
}

// Addr returns the listener's bound address, valid once ListenAndServe
// has started listening. Useful for tests and for logging the actual
// port when Config.Port is 0 (OS-assigned).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shuttingDown.Load() {
				return
			}
			s.log.Warnw("accept error", "error", err)
			continue
		}

		if s.cfg.MaxConnections > 0 && s.activeConns.Load() >= int64(s.cfg.MaxConnections) {
			s.log.Warnw("rejecting connection, max connections reached", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}

		id := uuid.NewString()
		s.mu.Lock()
		s.conns[id] = conn
		s.mu.Unlock()

		s.activeConns.Add(1)
		if s.metrics != nil {
			s.metrics.ConnectionsTotal.Inc()
			s.metrics.ConnectedClients.Inc()
		}

		s.wg.Add(1)
		go s.handleConn(id, conn)
	}
}

// handleConn owns one client connection end to end: parsing, dispatch,
// and pub/sub delivery, until the connection closes or a protocol error
// forces it shut (spec.md §4.1's "safer default").
func (s *Server) handleConn(id string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		s.activeConns.Add(-1)
		if s.metrics != nil {
			s.metrics.ConnectedClients.Dec()
		}
	}()
	defer conn.Close()

	connID := connIDFromUUID(id)
	sub := &connSubscriber{id: connID, ch: make(chan pubsub.Message, 256)}
	state := &dispatch.ConnState{ID: connID, Subscriber: sub}
	defer s.engine.Disconnect(state)

	pumpDone := make(chan struct{})
	go s.pumpMessages(conn, sub, pumpDone)
	defer close(pumpDone)

	bufSize := s.cfg.ReadBufferSize
	if bufSize <= 0 {
		bufSize = 4096
	}
	readBuf := make([]byte, bufSize)
	var pending []byte

	for {
		cmd, consumed, err := protocol.TryParseOne(pending)
		if err != nil {
			conn.Write(protocol.Error(fmt.Sprintf("ERR Protocol error: %v", err)))
			return
		}
		if cmd == nil {
			if s.cfg.ReadTimeout > 0 {
				conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
			}
			n, rerr := conn.Read(readBuf)
			if n > 0 {
				pending = append(pending, readBuf[:n]...)
			}
			if rerr != nil {
				return
			}
			continue
		}

		pending = pending[consumed:]

		reply := s.engine.Submit(state, cmd)
		if reply == nil {
			// internal disconnect bookkeeping only; no client ever triggers this.
			return
		}
		if _, werr := conn.Write(reply); werr != nil {
			return
		}
	}
}

// pumpMessages drains sub's channel and writes pub/sub pushes directly
// to conn, bypassing the request/reply path above — grounded in the
// teacher's handler.StartMessagePump, which writes "directly to
// connection" from a dedicated goroutine specifically so a slow
// subscriber can never stall command processing for anyone else.
func (s *Server) pumpMessages(conn net.Conn, sub *connSubscriber, done <-chan struct{}) {
	for {
		select {
		case msg, ok := <-sub.ch:
			if !ok {
				return
			}
			if _, err := conn.Write(encodePubSubMessage(msg)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Shutdown stops accepting new connections, closes every live one, and
// waits (with a timeout) for their goroutines to exit, mirroring the
// teacher's RedisServer.Shutdown close-listener/close-connections/wait
// sequence.
func (s *Server) Shutdown() {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Infow("all connections closed")
	case <-time.After(5 * time.Second):
		s.log.Warnw("shutdown timeout reached, forcing exit")
	}
}

// connSubscriber implements pubsub.Subscriber over a connection's pump
// channel. Deliver runs on the dispatcher's single executor goroutine
// (pubsub.Hub.Publish calls it synchronously), so it must never block:
// a full channel means a slow subscriber, and the message is dropped
// rather than stalling every other client's commands.
type connSubscriber struct {
	id int64
	ch chan pubsub.Message
}

func (c *connSubscriber) ID() int64 { return c.id }

func (c *connSubscriber) Deliver(msg pubsub.Message) {
	select {
	case c.ch <- msg:
	default:
	}
}

func encodePubSubMessage(msg pubsub.Message) []byte {
	return protocol.Array([][]byte{
		protocol.BulkString([]byte(msg.Kind)),
		protocol.BulkString([]byte(msg.Channel)),
		protocol.BulkString(msg.Payload),
	})
}

// connIDFromUUID folds a uuid string down to an int64 dispatch.ConnState
// key (txn.Manager and pubsub.Hub index by int64, not string), the way
// the teacher's atomic.Int64 counter did — only here the source of
// uniqueness is google/uuid's random identity rather than a process-
// local counter, per SPEC_FULL §5.9's connection-ID decision.
func connIDFromUUID(id string) int64 {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Now().UnixNano()
	}
	hi := uint64(0)
	for _, b := range u[:8] {
		hi = hi<<8 | uint64(b)
	}
	return int64(hi)
}
