package dispatch

import (
	"kvprotod/internal/protocol"
)

func (e *Engine) registerHLLCommands() {
	e.commands["PFADD"] = handlePFAdd
	e.commands["PFCOUNT"] = handlePFCount
	e.commands["PFMERGE"] = handlePFMerge
}

func handlePFAdd(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pfadd", 2, -1); r != nil {
		return r
	}
	changed, err := e.DB.PFAdd(string(args[1]), args[2:]...)
	if err != nil {
		return errReply(err)
	}
	if changed {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handlePFCount(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pfcount", 2, -1); r != nil {
		return r
	}
	n, err := e.DB.PFCount(strs(args[1:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(n)
}

func handlePFMerge(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pfmerge", 2, -1); r != nil {
		return r
	}
	if err := e.DB.PFMerge(string(args[1]), strs(args[1:])...); err != nil {
		return errReply(err)
	}
	return okReply()
}
