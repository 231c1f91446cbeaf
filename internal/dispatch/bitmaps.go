package dispatch

import (
	"strings"

	"kvprotod/internal/protocol"
)

func (e *Engine) registerBitmapCommands() {
	e.commands["SETBIT"] = handleSetBit
	e.commands["GETBIT"] = handleGetBit
	e.commands["BITCOUNT"] = handleBitCount
	e.commands["BITPOS"] = handleBitPos
	e.commands["BITOP"] = handleBitOp
}

func handleSetBit(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "setbit", 4, 4); r != nil {
		return r
	}
	offset, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	value, err := parseInt(args[3])
	if err != nil {
		return errReply(err)
	}
	old, err := e.DB.SetBit(string(args[1]), offset, int(value))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(old))
}

func handleGetBit(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "getbit", 3, 3); r != nil {
		return r
	}
	offset, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	v, err := e.DB.GetBit(string(args[1]), offset)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(v))
}

func handleBitCount(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "bitcount", 2, 4); r != nil {
		return r
	}
	var start, end *int64
	if len(args) == 4 {
		s, err := parseInt(args[2])
		if err != nil {
			return errReply(err)
		}
		en, err := parseInt(args[3])
		if err != nil {
			return errReply(err)
		}
		start, end = &s, &en
	}
	n, err := e.DB.BitCount(string(args[1]), start, end)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(n)
}

func handleBitPos(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "bitpos", 3, 5); r != nil {
		return r
	}
	want, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	var start, end *int64
	if len(args) >= 4 {
		s, err := parseInt(args[3])
		if err != nil {
			return errReply(err)
		}
		start = &s
	}
	if len(args) == 5 {
		en, err := parseInt(args[4])
		if err != nil {
			return errReply(err)
		}
		end = &en
	}
	pos, err := e.DB.BitPos(string(args[1]), int(want), start, end)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(pos)
}

func handleBitOp(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "bitop", 4, -1); r != nil {
		return r
	}
	op := strings.ToUpper(string(args[1]))
	if op == "NOT" && len(args) != 4 {
		return errReply(errSyntax)
	}
	n, err := e.DB.BitOp(op, string(args[2]), strs(args[3:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(n)
}
