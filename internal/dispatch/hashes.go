package dispatch

import (
	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

func (e *Engine) registerHashCommands() {
	e.commands["HSET"] = handleHSet
	e.commands["HSETNX"] = handleHSetNX
	e.commands["HGET"] = handleHGet
	e.commands["HDEL"] = handleHDel
	e.commands["HGETALL"] = handleHGetAll
	e.commands["HKEYS"] = handleHKeys
	e.commands["HVALS"] = handleHVals
	e.commands["HLEN"] = handleHLen
	e.commands["HEXISTS"] = handleHExists
	e.commands["HMGET"] = handleHMGet
	e.commands["HMSET"] = handleHMSet
}

func handleHSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if len(args) < 4 || len(args)%2 != 0 {
		return errReply(resperr.WrongArity("hset"))
	}
	key := string(args[1])
	created := 0
	for i := 2; i < len(args); i += 2 {
		isNew, err := e.DB.HSet(key, string(args[i]), args[i+1])
		if err != nil {
			return errReply(err)
		}
		if isNew {
			created++
		}
	}
	return protocol.Integer(int64(created))
}

func handleHSetNX(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hsetnx", 4, 4); r != nil {
		return r
	}
	ok, err := e.DB.HSetNX(string(args[1]), string(args[2]), args[3])
	if err != nil {
		return errReply(err)
	}
	if ok {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleHGet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hget", 3, 3); r != nil {
		return r
	}
	v, ok, err := e.DB.HGet(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(v)
}

func handleHDel(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hdel", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.HDel(string(args[1]), strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleHGetAll(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hgetall", 2, 2); r != nil {
		return r
	}
	h, err := e.DB.HGetAll(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	out := make([][]byte, 0, len(h)*2)
	for f, v := range h {
		out = append(out, []byte(f), v)
	}
	return protocol.BulkStringArray(out)
}

func handleHKeys(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hkeys", 2, 2); r != nil {
		return r
	}
	fields, err := e.DB.HKeys(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	return protocol.BulkStringArray(out)
}

func handleHVals(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hvals", 2, 2); r != nil {
		return r
	}
	vals, err := e.DB.HVals(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(vals)
}

func handleHLen(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hlen", 2, 2); r != nil {
		return r
	}
	n, err := e.DB.HLen(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleHExists(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hexists", 3, 3); r != nil {
		return r
	}
	ok, err := e.DB.HExists(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if ok {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleHMGet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "hmget", 3, -1); r != nil {
		return r
	}
	vals, err := e.DB.HMGet(string(args[1]), strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(vals)
}

func handleHMSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if len(args) < 4 || len(args)%2 != 0 {
		return errReply(resperr.WrongArity("hmset"))
	}
	key := string(args[1])
	for i := 2; i < len(args); i += 2 {
		if _, err := e.DB.HSet(key, string(args[i]), args[i+1]); err != nil {
			return errReply(err)
		}
	}
	return okReply()
}
