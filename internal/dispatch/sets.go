package dispatch

import (
	"kvprotod/internal/protocol"
)

func (e *Engine) registerSetCommands() {
	e.commands["SADD"] = handleSAdd
	e.commands["SREM"] = handleSRem
	e.commands["SCARD"] = handleSCard
	e.commands["SMEMBERS"] = handleSMembers
	e.commands["SISMEMBER"] = handleSIsMember
	e.commands["SMOVE"] = handleSMove
	e.commands["SPOP"] = handleSPop
	e.commands["SRANDMEMBER"] = handleSRandMember
	e.commands["SINTER"] = handleSInter
	e.commands["SUNION"] = handleSUnion
	e.commands["SDIFF"] = handleSDiff
	e.commands["SINTERSTORE"] = handleSInterStore
	e.commands["SUNIONSTORE"] = handleSUnionStore
	e.commands["SDIFFSTORE"] = handleSDiffStore
}

func stringsToBulk(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func handleSAdd(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sadd", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.SAdd(string(args[1]), strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleSRem(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "srem", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.SRem(string(args[1]), strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleSCard(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "scard", 2, 2); r != nil {
		return r
	}
	n, err := e.DB.SCard(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleSMembers(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "smembers", 2, 2); r != nil {
		return r
	}
	m, err := e.DB.SMembers(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(stringsToBulk(m))
}

func handleSIsMember(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sismember", 3, 3); r != nil {
		return r
	}
	ok, err := e.DB.SIsMember(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if ok {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleSMove(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "smove", 4, 4); r != nil {
		return r
	}
	ok, err := e.DB.SMove(string(args[1]), string(args[2]), string(args[3]))
	if err != nil {
		return errReply(err)
	}
	if ok {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleSPop(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "spop", 2, 3); r != nil {
		return r
	}
	count := 1
	multi := false
	if len(args) == 3 {
		n, err := parseInt(args[2])
		if err != nil {
			return errReply(err)
		}
		count = int(n)
		multi = true
	}
	members, err := e.DB.SPop(string(args[1]), count)
	if err != nil {
		return errReply(err)
	}
	if multi {
		return protocol.BulkStringArray(stringsToBulk(members))
	}
	if len(members) == 0 {
		return protocol.NullBulk()
	}
	return protocol.BulkString([]byte(members[0]))
}

func handleSRandMember(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "srandmember", 2, 3); r != nil {
		return r
	}
	count := 1
	multi := false
	if len(args) == 3 {
		n, err := parseInt(args[2])
		if err != nil {
			return errReply(err)
		}
		count = int(n)
		multi = true
	}
	members, err := e.DB.SRandMember(string(args[1]), count)
	if err != nil {
		return errReply(err)
	}
	if multi {
		return protocol.BulkStringArray(stringsToBulk(members))
	}
	if len(members) == 0 {
		return protocol.NullBulk()
	}
	return protocol.BulkString([]byte(members[0]))
}

func handleSInter(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sinter", 2, -1); r != nil {
		return r
	}
	m, err := e.DB.SInter(strs(args[1:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(stringsToBulk(m))
}

func handleSUnion(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sunion", 2, -1); r != nil {
		return r
	}
	m, err := e.DB.SUnion(strs(args[1:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(stringsToBulk(m))
}

func handleSDiff(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sdiff", 2, -1); r != nil {
		return r
	}
	m, err := e.DB.SDiff(strs(args[1:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkStringArray(stringsToBulk(m))
}

func handleSInterStore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sinterstore", 3, -1); r != nil {
		return r
	}
	m, err := e.DB.SInter(strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return storeSetResult(e, string(args[1]), m)
}

func handleSUnionStore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sunionstore", 3, -1); r != nil {
		return r
	}
	m, err := e.DB.SUnion(strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return storeSetResult(e, string(args[1]), m)
}

func handleSDiffStore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "sdiffstore", 3, -1); r != nil {
		return r
	}
	m, err := e.DB.SDiff(strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return storeSetResult(e, string(args[1]), m)
}

func storeSetResult(e *Engine, dest string, members []string) []byte {
	e.DB.Delete(dest)
	if len(members) > 0 {
		if _, err := e.DB.SAdd(dest, members...); err != nil {
			return errReply(err)
		}
	}
	return protocol.Integer(int64(len(members)))
}
