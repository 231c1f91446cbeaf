package dispatch

import (
	"strconv"
	"time"

	"kvprotod/internal/introspect"
	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

// shutdownGrace bounds how long SHUTDOWN waits for the final save
// before tearing the server down anyway, per spec.md §7's "fixed grace
// window for the final save".
const shutdownGrace = 5 * time.Second

func (e *Engine) registerServerCommands() {
	e.commands["PING"] = handlePing
	e.commands["ECHO"] = handleEcho
	e.commands["COMMAND"] = handleCommand
	e.commands["INFO"] = handleInfo
	e.commands["CONFIG"] = handleConfig
	e.commands["DBSIZE"] = handleDBSize
	e.commands["SELECT"] = handleSelect
	e.commands["SAVE"] = handleSave
	e.commands["BGSAVE"] = handleBGSave
	e.commands["LASTSAVE"] = handleLastSave
	e.commands["SHUTDOWN"] = handleShutdown
}

func handlePing(e *Engine, conn *ConnState, args [][]byte) []byte {
	if len(args) >= 2 {
		return protocol.BulkString(args[1])
	}
	return protocol.SimpleString("PONG")
}

func handleEcho(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "echo", 2, 2); r != nil {
		return r
	}
	return protocol.BulkString(args[1])
}

// COMMAND is a stub: it reports the commands this engine knows about,
// without the full per-command flag/arity metadata real Redis exposes.
func handleCommand(e *Engine, conn *ConnState, args [][]byte) []byte {
	out := make([][]byte, 0, len(e.commands))
	for name := range e.commands {
		out = append(out, protocol.BulkString([]byte(name)))
	}
	return protocol.Array(out)
}

func handleInfo(e *Engine, conn *ConnState, args [][]byte) []byte {
	if e.Metrics == nil {
		info := "# Server\r\n" +
			"redis_version:7.0.0-kvprotod\r\n" +
			"# Keyspace\r\n" +
			"db0:keys=" + strconv.Itoa(len(e.DB.Keys())) + "\r\n"
		return protocol.BulkString([]byte(info))
	}
	params := introspect.Params{
		Keys:           len(e.DB.Keys()),
		MemoryBytes:    e.DB.MemoryBytes(),
		MaxMemoryBytes: e.MaxMemoryBytes,
	}
	if e.Persist != nil {
		params.RDBEnabled = true
		params.LastSave = e.Persist.LastSave()
		params.LastSaveErr = e.Persist.LastError()
	}
	return protocol.BulkString([]byte(e.Metrics.BuildINFO(params)))
}

// SAVE performs a synchronous RDB snapshot.
func handleSave(e *Engine, conn *ConnState, args [][]byte) []byte {
	if e.Persist == nil {
		return errReply(resperr.State("persistence not configured"))
	}
	if err := e.Persist.Save(); err != nil {
		return errReply(resperr.IO("%v", err))
	}
	return okReply()
}

// BGSAVE triggers an RDB snapshot on a background goroutine, replying
// immediately the way real Redis does.
func handleBGSave(e *Engine, conn *ConnState, args [][]byte) []byte {
	if e.Persist == nil {
		return errReply(resperr.State("persistence not configured"))
	}
	if err := e.Persist.BGSave(); err != nil {
		return errReply(resperr.IO("%v", err))
	}
	return protocol.SimpleString("Background saving started")
}

func handleLastSave(e *Engine, conn *ConnState, args [][]byte) []byte {
	if e.Persist == nil {
		return protocol.Integer(0)
	}
	return protocol.Integer(e.Persist.LastSave().Unix())
}

// SHUTDOWN [NOSAVE] replies immediately, per spec.md §4.9, then persists
// (unless NOSAVE was given) and tears the server down on a deferred
// goroutine instead of blocking the single executor thread for however
// long the final save takes — a large synchronous SAVE here would stall
// every other connection's in-flight command.
func handleShutdown(e *Engine, conn *ConnState, args [][]byte) []byte {
	save := true
	if len(args) >= 2 && upperString(args[1]) == "NOSAVE" {
		save = false
	}
	go func() {
		if e.Persist != nil {
			done := make(chan error, 1)
			go func() { done <- e.Persist.Shutdown(save) }()
			select {
			case err := <-done:
				if err != nil {
					e.Log.Warnw("shutdown persistence failed", "error", err)
				}
			case <-time.After(shutdownGrace):
				e.Log.Warnw("shutdown persistence exceeded grace window, proceeding anyway", "grace", shutdownGrace)
			}
		}
		if e.shutdownHook != nil {
			e.shutdownHook()
		}
	}()
	return protocol.SimpleString("OK - shutting down")
}

// CONFIG is a stub sufficient for clients that probe it at connect
// time; GET always reports an empty value, SET always succeeds.
func handleConfig(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "config", 2, -1); r != nil {
		return r
	}
	switch upperString(args[1]) {
	case "GET":
		if len(args) < 3 {
			return errReply(errSyntax)
		}
		return protocol.Array([][]byte{
			protocol.BulkString(args[2]),
			protocol.BulkString([]byte("")),
		})
	case "SET":
		return okReply()
	default:
		return errReply(errSyntax)
	}
}

func handleDBSize(e *Engine, conn *ConnState, args [][]byte) []byte {
	return protocol.Integer(int64(len(e.DB.Keys())))
}

// SELECT only ever succeeds for db 0: this engine is single-database.
func handleSelect(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "select", 2, 2); r != nil {
		return r
	}
	n, err := parseInt(args[1])
	if err != nil {
		return errReply(err)
	}
	if n != 0 {
		return errReply(errSyntax)
	}
	return okReply()
}

