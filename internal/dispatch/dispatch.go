// Package dispatch implements the single-threaded command executor of
// spec.md §5: every client connection submits parsed commands onto one
// shared channel, and a single goroutine drains it and mutates the
// keyspace — generalized from the teacher's internal/processor.Processor
// (a buffered command channel plus one "run" goroutine) and
// internal/handler.CommandHandler (the name -> handler-func table), here
// collapsed into one Engine since this rewrite's store.DB already does
// its own key-level bookkeeping without needing a separate Command
// struct/response-channel indirection per call.
package dispatch

import (
	"kvprotod/internal/introspect"
	"kvprotod/internal/log"
	"kvprotod/internal/persist"
	"kvprotod/internal/protocol"
	"kvprotod/internal/pubsub"
	"kvprotod/internal/resperr"
	"kvprotod/internal/store"
	"kvprotod/internal/txn"
)

// Handler implements one command. args is the full argument vector
// including the command name at args[0].
type Handler func(e *Engine, conn *ConnState, args [][]byte) []byte

// ConnState is the dispatcher's per-connection state: transaction/watch
// status and, once subscribed, its pub/sub identity. The server layer
// owns the net.Conn and constructs one ConnState per accepted connection.
type ConnState struct {
	ID         int64
	Subscriber pubsub.Subscriber
	InSubMode  bool
}

type request struct {
	conn  *ConnState
	cmd   *protocol.Command
	reply chan []byte
}

// Engine is the single executor. All DB/hub/tx mutation happens inside
// its run loop, never directly from connection goroutines (spec.md §5).
type Engine struct {
	DB  *store.DB
	Hub *pubsub.Hub
	Tx  *txn.Manager
	Log *log.Logger

	commands map[string]Handler
	queue    chan request

	// onWrite, if set, is invoked after every successfully-executed write
	// command (name uppercased, full args) so the persistence coordinator
	// can append it to the AOF.
	onWrite func(name string, args [][]byte)

	// MaxMemoryBytes bounds DB.MemoryBytes(), checked at write time by the
	// string-mutating handlers (SPEC_FULL §4: no per-cell size cap, only a
	// total-memory hint). Zero means unbounded.
	MaxMemoryBytes int64

	// Persist, if set, backs SAVE/BGSAVE/LASTSAVE and the Persistence
	// section of INFO.
	Persist *persist.Coordinator
	// Metrics, if set, backs INFO's Stats/Clients sections and is
	// incremented on every executed command.
	Metrics *introspect.Registry

	// shutdownHook, if set, is invoked by SHUTDOWN after persistence has
	// been handled, telling the server layer to stop accepting
	// connections and exit the process.
	shutdownHook func()
}

// SetShutdownHook installs the callback SHUTDOWN invokes once its own
// save/no-save handling has completed.
func (e *Engine) SetShutdownHook(fn func()) {
	e.shutdownHook = fn
}

// New creates an Engine wired to db/hub/tx and starts its executor
// goroutine. queueSize bounds the number of in-flight submitted
// commands, mirroring the teacher's buffered commandChan.
func New(db *store.DB, hub *pubsub.Hub, tx *txn.Manager, logger *log.Logger, queueSize int) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	e := &Engine{
		DB:    db,
		Hub:   hub,
		Tx:    tx,
		Log:   logger,
		queue: make(chan request, queueSize),
	}
	e.registerCommands()
	go e.run()
	return e
}

// SetWriteHook installs the AOF-append callback.
func (e *Engine) SetWriteHook(fn func(name string, args [][]byte)) {
	e.onWrite = fn
}

func (e *Engine) run() {
	for req := range e.queue {
		req.reply <- e.execute(req.conn, req.cmd)
	}
}

// Submit enqueues cmd for execution on conn's behalf and blocks for its
// reply. Safe to call concurrently from any number of connection
// goroutines — ordering across connections is whatever order Submit
// calls reach the channel in.
func (e *Engine) Submit(conn *ConnState, cmd *protocol.Command) []byte {
	req := request{conn: conn, cmd: cmd, reply: make(chan []byte, 1)}
	e.queue <- req
	return <-req.reply
}

// Stop closes the executor. Pending Submits already enqueued still run.
func (e *Engine) Stop() {
	close(e.queue)
}

// Disconnect releases conn's transaction/pubsub state. Call from the
// server layer when a connection closes.
func (e *Engine) Disconnect(conn *ConnState) {
	req := request{conn: conn, cmd: &protocol.Command{Args: [][]byte{[]byte("__disconnect__")}}, reply: make(chan []byte, 1)}
	e.queue <- req
	<-req.reply
}

var errEmptyCommand = protocol.Error(resperr.Protocol("empty command").Error())

func (e *Engine) execute(conn *ConnState, cmd *protocol.Command) []byte {
	name := cmd.Name()
	if name == "" {
		return errEmptyCommand
	}
	if name == "__disconnect__" {
		e.Tx.Remove(conn.ID)
		if conn.Subscriber != nil {
			e.Hub.RemoveSubscriber(conn.ID)
		}
		return nil
	}

	if conn.InSubMode && !allowedInSubMode(name) {
		return protocol.Error("ERR only SUBSCRIBE / UNSUBSCRIBE / PING / QUIT allowed in this context")
	}

	tx := e.Tx.Get(conn.ID)
	if tx.InMulti {
		switch name {
		case "EXEC", "DISCARD", "MULTI", "WATCH":
			// falls through to direct handling below
		default:
			if badCmd := validateQueueable(name, cmd.Args); badCmd != nil {
				tx.Dirty = true
				return protocol.Error(badCmd.Error())
			}
			tx.Queued = append(tx.Queued, cmd)
			return protocol.SimpleString("QUEUED")
		}
	}

	switch name {
	case "MULTI":
		return e.handleMulti(conn)
	case "EXEC":
		return e.handleExec(conn)
	case "DISCARD":
		return e.handleDiscard(conn)
	case "WATCH":
		return e.handleWatch(conn, cmd.Args)
	case "UNWATCH":
		return e.handleUnwatch(conn)
	}

	handler, ok := e.commands[name]
	if !ok {
		return protocol.Error(unknownCommandMsg(name))
	}
	if e.Metrics != nil {
		e.Metrics.CommandsProcessed.WithLabelValues(name).Inc()
	}
	reply := handler(e, conn, cmd.Args)
	if isWriteCommand(name) && e.onWrite != nil && (len(reply) == 0 || reply[0] != '-') {
		e.onWrite(name, cmd.Args)
	}
	return reply
}

func allowedInSubMode(name string) bool {
	switch name {
	case "SUBSCRIBE", "UNSUBSCRIBE", "PING", "QUIT":
		return true
	}
	return false
}

func unknownCommandMsg(name string) string {
	return resperr.UnknownCommand(name).Error()
}
