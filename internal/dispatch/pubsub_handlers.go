package dispatch

import (
	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

func (e *Engine) registerPubSubCommands() {
	e.commands["SUBSCRIBE"] = handleSubscribe
	e.commands["UNSUBSCRIBE"] = handleUnsubscribe
	e.commands["PUBLISH"] = handlePublish
	e.commands["PUBSUB"] = handlePubSub
}

// subAck builds one SUBSCRIBE/UNSUBSCRIBE confirmation array:
// ["subscribe"|"unsubscribe", channel, count].
func subAck(kind, channel string, count int) []byte {
	return protocol.Array([][]byte{
		protocol.BulkString([]byte(kind)),
		protocol.BulkString([]byte(channel)),
		protocol.Integer(int64(count)),
	})
}

func handleSubscribe(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "subscribe", 2, -1); r != nil {
		return r
	}
	if conn.Subscriber == nil {
		return errReply(resperr.State("pub/sub not available on this connection"))
	}
	channels := strs(args[1:])
	counts := e.Hub.Subscribe(conn.Subscriber, channels...)
	conn.InSubMode = true
	var out []byte
	for i, ch := range channels {
		out = append(out, subAck("subscribe", ch, counts[i])...)
	}
	return out
}

func handleUnsubscribe(e *Engine, conn *ConnState, args [][]byte) []byte {
	if conn.Subscriber == nil {
		return errReply(resperr.State("pub/sub not available on this connection"))
	}
	channels, counts := e.Hub.Unsubscribe(conn.Subscriber, strs(args[1:])...)
	if len(channels) == 0 {
		conn.InSubMode = false
		return subAck("unsubscribe", "", 0)
	}
	var out []byte
	for i, ch := range channels {
		out = append(out, subAck("unsubscribe", ch, counts[i])...)
	}
	return out
}

func handlePublish(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "publish", 3, 3); r != nil {
		return r
	}
	n := e.Hub.Publish(string(args[1]), args[2])
	return protocol.Integer(int64(n))
}

func handlePubSub(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "pubsub", 2, -1); r != nil {
		return r
	}
	switch upperString(args[1]) {
	case "CHANNELS":
		pattern := ""
		if len(args) >= 3 {
			pattern = string(args[2])
		}
		chans := e.Hub.Channels(pattern)
		out := make([][]byte, len(chans))
		for i, c := range chans {
			out[i] = []byte(c)
		}
		return protocol.BulkStringArray(out)
	case "NUMSUB":
		channels := strs(args[2:])
		counts := e.Hub.NumSub(channels)
		out := make([][]byte, 0, len(channels)*2)
		for i, ch := range channels {
			out = append(out, protocol.BulkString([]byte(ch)), protocol.Integer(int64(counts[i])))
		}
		return protocol.Array(out)
	case "NUMPAT":
		return protocol.Integer(int64(e.Hub.NumPat()))
	default:
		return errReply(resperr.Generic("unknown PUBSUB subcommand"))
	}
}
