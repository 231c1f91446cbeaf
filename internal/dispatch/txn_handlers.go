package dispatch

import (
	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

func (e *Engine) handleMulti(conn *ConnState) []byte {
	tx := e.Tx.Get(conn.ID)
	if tx.InMulti {
		return protocol.Error("ERR MULTI calls can not be nested")
	}
	tx.InMulti = true
	tx.Queued = nil
	return protocol.SimpleString("OK")
}

func (e *Engine) handleDiscard(conn *ConnState) []byte {
	tx := e.Tx.Get(conn.ID)
	if !tx.InMulti {
		return protocol.Error("ERR DISCARD without MULTI")
	}
	tx.Reset()
	return protocol.SimpleString("OK")
}

func (e *Engine) handleWatch(conn *ConnState, args [][]byte) []byte {
	tx := e.Tx.Get(conn.ID)
	if tx.InMulti {
		return protocol.Error("ERR WATCH inside MULTI is not allowed")
	}
	if len(args) < 2 {
		return protocol.Error("ERR wrong number of arguments for 'watch' command")
	}
	keys := make([]string, len(args)-1)
	for i, a := range args[1:] {
		keys[i] = string(a)
	}
	e.Tx.Watch(conn.ID, e.DB, keys...)
	return protocol.SimpleString("OK")
}

func (e *Engine) handleUnwatch(conn *ConnState) []byte {
	e.Tx.Unwatch(conn.ID)
	return protocol.SimpleString("OK")
}

func (e *Engine) handleExec(conn *ConnState) []byte {
	tx := e.Tx.Get(conn.ID)
	if !tx.InMulti {
		return protocol.Error("ERR EXEC without MULTI")
	}
	queued := tx.Queued
	dirty := tx.Dirty
	valid := tx.StillValid(e.DB)
	tx.Reset()
	e.Tx.Unwatch(conn.ID)
	if dirty {
		return protocol.Error(resperr.ExecAbort("Transaction discarded because of previous errors.").Error())
	}
	if !valid {
		return protocol.NullArray()
	}
	replies := make([][]byte, len(queued))
	for i, cmd := range queued {
		name := cmd.Name()
		handler, ok := e.commands[name]
		if !ok {
			replies[i] = protocol.Error(unknownCommandMsg(name))
			continue
		}
		replies[i] = handler(e, conn, cmd.Args)
		if isWriteCommand(name) && e.onWrite != nil && (len(replies[i]) == 0 || replies[i][0] != '-') {
			e.onWrite(name, cmd.Args)
		}
	}
	return protocol.Array(replies)
}
