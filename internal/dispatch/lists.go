package dispatch

import (
	"kvprotod/internal/protocol"
)

func (e *Engine) registerListCommands() {
	e.commands["LPUSH"] = handleLPush
	e.commands["RPUSH"] = handleRPush
	e.commands["LPOP"] = handleLPop
	e.commands["RPOP"] = handleRPop
	e.commands["LLEN"] = handleLLen
	e.commands["LRANGE"] = handleLRange
	e.commands["LINDEX"] = handleLIndex
	e.commands["LSET"] = handleLSet
	e.commands["LREM"] = handleLRem
	e.commands["LTRIM"] = handleLTrim
	e.commands["LINSERT"] = handleLInsert
}

func handleLPush(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lpush", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.LPush(string(args[1]), args[2:]...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleRPush(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "rpush", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.RPush(string(args[1]), args[2:]...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleLPop(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lpop", 2, 2); r != nil {
		return r
	}
	v, ok, err := e.DB.LPop(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(v)
}

func handleRPop(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "rpop", 2, 2); r != nil {
		return r
	}
	v, ok, err := e.DB.RPop(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(v)
}

func handleLLen(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "llen", 2, 2); r != nil {
		return r
	}
	n, err := e.DB.LLen(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleLRange(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lrange", 4, 4); r != nil {
		return r
	}
	start, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return errReply(err)
	}
	vals, err := e.DB.LRange(string(args[1]), int(start), int(stop))
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(vals)
}

func handleLIndex(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lindex", 3, 3); r != nil {
		return r
	}
	idx, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	v, ok, err := e.DB.LIndex(string(args[1]), int(idx))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString(v)
}

func handleLSet(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lset", 4, 4); r != nil {
		return r
	}
	idx, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	if err := e.DB.LSet(string(args[1]), int(idx), args[3]); err != nil {
		return errReply(err)
	}
	return okReply()
}

func handleLRem(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "lrem", 4, 4); r != nil {
		return r
	}
	count, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	n, err := e.DB.LRem(string(args[1]), int(count), args[3])
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleLTrim(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "ltrim", 4, 4); r != nil {
		return r
	}
	start, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return errReply(err)
	}
	if err := e.DB.LTrim(string(args[1]), int(start), int(stop)); err != nil {
		return errReply(err)
	}
	return okReply()
}

func handleLInsert(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "linsert", 5, 5); r != nil {
		return r
	}
	var before bool
	switch string(args[2]) {
	case "BEFORE", "before":
		before = true
	case "AFTER", "after":
		before = false
	default:
		return errReply(errSyntax)
	}
	n, err := e.DB.LInsert(string(args[1]), before, args[3], args[4])
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}
