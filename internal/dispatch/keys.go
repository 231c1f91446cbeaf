package dispatch

import (
	"time"

	"kvprotod/internal/protocol"
	"kvprotod/internal/store"
)

func (e *Engine) registerKeyCommands() {
	e.commands["DEL"] = handleDel
	e.commands["UNLINK"] = handleDel
	e.commands["EXISTS"] = handleExists
	e.commands["EXPIRE"] = handleExpire
	e.commands["PEXPIRE"] = handlePExpire
	e.commands["PERSIST"] = handlePersist
	e.commands["TTL"] = handleTTL
	e.commands["PTTL"] = handlePTTL
	e.commands["KEYS"] = handleKeys
	e.commands["TYPE"] = handleType
	e.commands["FLUSHALL"] = handleFlushAll
	e.commands["FLUSHDB"] = handleFlushAll
	e.commands["RENAME"] = handleRename
}

func handleDel(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "del", 2, -1); r != nil {
		return r
	}
	n := 0
	for _, k := range args[1:] {
		if e.DB.Delete(string(k)) {
			n++
		}
	}
	return protocol.Integer(int64(n))
}

func handleExists(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "exists", 2, -1); r != nil {
		return r
	}
	n := 0
	for _, k := range args[1:] {
		if e.DB.Exists(string(k)) {
			n++
		}
	}
	return protocol.Integer(int64(n))
}

func handleExpire(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "expire", 3, 3); r != nil {
		return r
	}
	secs, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	if !e.DB.Expire(string(args[1]), time.Duration(secs)*time.Second) {
		return protocol.Integer(0)
	}
	return protocol.Integer(1)
}

func handlePExpire(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pexpire", 3, 3); r != nil {
		return r
	}
	ms, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	if !e.DB.Expire(string(args[1]), time.Duration(ms)*time.Millisecond) {
		return protocol.Integer(0)
	}
	return protocol.Integer(1)
}

func handlePersist(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "persist", 2, 2); r != nil {
		return r
	}
	if e.DB.Persist(string(args[1])) {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleTTL(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "ttl", 2, 2); r != nil {
		return r
	}
	return protocol.Integer(e.DB.TTLSeconds(string(args[1])))
}

func handlePTTL(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pttl", 2, 2); r != nil {
		return r
	}
	secs := e.DB.TTLSeconds(string(args[1]))
	if secs < 0 {
		return protocol.Integer(secs)
	}
	return protocol.Integer(secs * 1000)
}

func handleKeys(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "keys", 2, 2); r != nil {
		return r
	}
	pattern := string(args[1])
	var out [][]byte
	for _, k := range e.DB.Keys() {
		if pattern == "*" || matchGlob(pattern, k) {
			out = append(out, []byte(k))
		}
	}
	return protocol.BulkStringArray(out)
}

func handleType(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "type", 2, 2); r != nil {
		return r
	}
	kind, ok := e.DB.Kind(string(args[1]))
	if !ok {
		return protocol.SimpleString("none")
	}
	return protocol.SimpleString(kind.String())
}

func handleFlushAll(e *Engine, conn *ConnState, args [][]byte) []byte {
	e.DB.Flush()
	return okReply()
}

func handleRename(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "rename", 3, 3); r != nil {
		return r
	}
	src, dst := string(args[1]), string(args[2])
	if !e.DB.Exists(src) {
		return errReply(store.ErrNoSuchKey)
	}
	if err := e.DB.Rename(src, dst); err != nil {
		return errReply(err)
	}
	return okReply()
}
