package dispatch

import (
	"strconv"
	"strings"
	"time"

	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

func (e *Engine) registerStringCommands() {
	e.commands["SET"] = handleSet
	e.commands["SETEX"] = handleSetEx
	e.commands["PSETEX"] = handlePSetEx
	e.commands["SETNX"] = handleSetNX
	e.commands["GET"] = handleGet
	e.commands["GETSET"] = handleGetSet
	e.commands["APPEND"] = handleAppend
	e.commands["STRLEN"] = handleStrLen
	e.commands["INCR"] = handleIncr
	e.commands["INCRBY"] = handleIncrBy
	e.commands["DECR"] = handleDecr
	e.commands["DECRBY"] = handleDecrBy
	e.commands["MSET"] = handleMSet
	e.commands["MGET"] = handleMGet
}

// SET key value [EX seconds | PX milliseconds]
func handleSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "set", 3, -1); r != nil {
		return r
	}
	var ttl *time.Duration
	for i := 3; i < len(args); i++ {
		opt := strings.ToUpper(string(args[i]))
		switch opt {
		case "EX", "PX":
			if i+1 >= len(args) {
				return errReply(resperr.Generic("syntax error"))
			}
			n, err := parseInt(args[i+1])
			if err != nil {
				return errReply(err)
			}
			var d time.Duration
			if opt == "EX" {
				d = time.Duration(n) * time.Second
			} else {
				d = time.Duration(n) * time.Millisecond
			}
			ttl = &d
			i++
		default:
			return errReply(resperr.Generic("syntax error"))
		}
	}
	if err := checkMemory(e, len(args[2])); err != nil {
		return errReply(err)
	}
	if err := e.DB.SetString(string(args[1]), args[2], ttl); err != nil {
		return errReply(err)
	}
	return okReply()
}

func handleSetEx(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "setex", 4, 4); r != nil {
		return r
	}
	secs, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	d := time.Duration(secs) * time.Second
	if err := e.DB.SetString(string(args[1]), args[3], &d); err != nil {
		return errReply(err)
	}
	return okReply()
}

func handlePSetEx(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "psetex", 4, 4); r != nil {
		return r
	}
	ms, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	d := time.Duration(ms) * time.Millisecond
	if err := e.DB.SetString(string(args[1]), args[3], &d); err != nil {
		return errReply(err)
	}
	return okReply()
}

func handleSetNX(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "setnx", 3, 3); r != nil {
		return r
	}
	if e.DB.Exists(string(args[1])) {
		return protocol.Integer(0)
	}
	if err := e.DB.SetString(string(args[1]), args[2], nil); err != nil {
		return errReply(err)
	}
	return protocol.Integer(1)
}

func handleGet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "get", 2, 2); r != nil {
		return r
	}
	v, ok, err := e.DB.GetString(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(v)
}

func handleGetSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "getset", 3, 3); r != nil {
		return r
	}
	key := string(args[1])
	old, ok, err := e.DB.GetString(key)
	if err != nil {
		return errReply(err)
	}
	if err := e.DB.SetString(key, args[2], nil); err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(old)
}

func handleAppend(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "append", 3, 3); r != nil {
		return r
	}
	key := string(args[1])
	old, _, err := e.DB.GetString(key)
	if err != nil {
		return errReply(err)
	}
	combined := append(append([]byte{}, old...), args[2]...)
	if err := checkMemory(e, len(args[2])); err != nil {
		return errReply(err)
	}
	if err := setPreservingTTL(e, key, combined); err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(len(combined)))
}

// setPreservingTTL rewrites key's string payload without touching an
// existing TTL, for commands (APPEND, INCR family) that mutate a value
// in place rather than replacing it outright.
func setPreservingTTL(e *Engine, key string, value []byte) error {
	secs := e.DB.TTLSeconds(key)
	if err := e.DB.SetString(key, value, nil); err != nil {
		return err
	}
	if secs > 0 {
		e.DB.Expire(key, time.Duration(secs)*time.Second)
	}
	return nil
}

func handleStrLen(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "strlen", 2, 2); r != nil {
		return r
	}
	v, _, err := e.DB.GetString(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(len(v)))
}

func handleIncr(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "incr", 2, 2); r != nil {
		return r
	}
	return incrByHelper(e, string(args[1]), 1)
}

func handleIncrBy(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "incrby", 3, 3); r != nil {
		return r
	}
	delta, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	return incrByHelper(e, string(args[1]), delta)
}

func handleDecr(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "decr", 2, 2); r != nil {
		return r
	}
	return incrByHelper(e, string(args[1]), -1)
}

func handleDecrBy(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "decrby", 3, 3); r != nil {
		return r
	}
	delta, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	return incrByHelper(e, string(args[1]), -delta)
}

func incrByHelper(e *Engine, key string, delta int64) []byte {
	old, ok, err := e.DB.GetString(key)
	if err != nil {
		return errReply(err)
	}
	var current int64
	if ok {
		current, err = parseInt(old)
		if err != nil {
			return errReply(err)
		}
	}
	next := current + delta
	if err := setPreservingTTL(e, key, []byte(strconv.FormatInt(next, 10))); err != nil {
		return errReply(err)
	}
	return protocol.Integer(next)
}

func handleMSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if len(args) < 3 || len(args)%2 != 1 {
		return errReply(resperr.WrongArity("mset"))
	}
	for i := 1; i < len(args); i += 2 {
		if err := e.DB.SetString(string(args[i]), args[i+1], nil); err != nil {
			return errReply(err)
		}
	}
	return okReply()
}

func handleMGet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "mget", 2, -1); r != nil {
		return r
	}
	out := make([][]byte, len(args)-1)
	for i, k := range args[1:] {
		v, ok, err := e.DB.GetString(string(k))
		if err == nil && ok {
			out[i] = v
		}
	}
	return protocol.BulkStringArray(out)
}
