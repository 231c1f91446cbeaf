package dispatch

import (
	"math"
	"strconv"
	"strings"

	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
	"kvprotod/internal/sortedset"
)

func (e *Engine) registerZSetCommands() {
	e.commands["ZADD"] = handleZAdd
	e.commands["ZREM"] = handleZRem
	e.commands["ZCARD"] = handleZCard
	e.commands["ZSCORE"] = handleZScore
	e.commands["ZINCRBY"] = handleZIncrBy
	e.commands["ZCOUNT"] = handleZCount
	e.commands["ZRANGE"] = handleZRange
	e.commands["ZREVRANGE"] = handleZRevRange
	e.commands["ZRANGEBYSCORE"] = handleZRangeByScore
	e.commands["ZREVRANGEBYSCORE"] = handleZRevRangeByScore
	e.commands["ZRANK"] = handleZRank
	e.commands["ZREVRANK"] = handleZRevRank
	e.commands["ZPOPMIN"] = handleZPopMin
	e.commands["ZPOPMAX"] = handleZPopMax
	e.commands["ZREMRANGEBYSCORE"] = handleZRemRangeByScore
	e.commands["ZREMRANGEBYRANK"] = handleZRemRangeByRank
}

// parseScoreBound parses a ZRANGEBYSCORE-style bound: an optional leading
// '(' marks the bound exclusive, "+inf"/"-inf" are accepted verbatim.
func parseScoreBound(b []byte) (value float64, exclusive bool, err error) {
	s := string(b)
	if strings.HasPrefix(s, "(") {
		exclusive = true
		s = s[1:]
	}
	switch s {
	case "+inf":
		return math.Inf(1), exclusive, nil
	case "-inf":
		return math.Inf(-1), exclusive, nil
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return 0, false, resperr.NotFloat()
	}
	return f, exclusive, nil
}

func entriesToReply(entries []sortedset.Entry, withScores bool) []byte {
	if !withScores {
		out := make([][]byte, len(entries))
		for i, e := range entries {
			out[i] = []byte(e.Member)
		}
		return protocol.BulkStringArray(out)
	}
	out := make([][]byte, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, []byte(e.Member), []byte(formatScore(e.Score)))
	}
	return protocol.BulkStringArray(out)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func handleZAdd(e *Engine, conn *ConnState, args [][]byte) []byte {
	if len(args) < 4 || len(args)%2 != 0 {
		return errReply(resperr.WrongArity("zadd"))
	}
	pairs := make(map[string]float64, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		score, err := parseFloat(args[i])
		if err != nil {
			return errReply(err)
		}
		pairs[string(args[i+1])] = score
	}
	n, err := e.DB.ZAdd(string(args[1]), pairs)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleZRem(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrem", 3, -1); r != nil {
		return r
	}
	n, err := e.DB.ZRem(string(args[1]), strs(args[2:])...)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleZCard(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zcard", 2, 2); r != nil {
		return r
	}
	n, err := e.DB.ZCard(string(args[1]))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleZScore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zscore", 3, 3); r != nil {
		return r
	}
	sc, ok, err := e.DB.ZScore(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return protocol.NullBulk()
	}
	return protocol.BulkString([]byte(formatScore(sc)))
}

func handleZIncrBy(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zincrby", 4, 4); r != nil {
		return r
	}
	delta, err := parseFloat(args[2])
	if err != nil {
		return errReply(err)
	}
	sc, err := e.DB.ZIncrBy(string(args[1]), string(args[3]), delta)
	if err != nil {
		return errReply(err)
	}
	return protocol.BulkString([]byte(formatScore(sc)))
}

func handleZCount(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zcount", 4, 4); r != nil {
		return r
	}
	min, minExcl, err := parseScoreBound(args[2])
	if err != nil {
		return errReply(err)
	}
	max, maxExcl, err := parseScoreBound(args[3])
	if err != nil {
		return errReply(err)
	}
	n, err := e.DB.ZCount(string(args[1]), min, max, minExcl, maxExcl)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func hasWithScores(args [][]byte) bool {
	if len(args) == 0 {
		return false
	}
	return strings.EqualFold(string(args[len(args)-1]), "WITHSCORES")
}

func handleZRange(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrange", 4, 5); r != nil {
		return r
	}
	withScores := hasWithScores(args)
	if len(args) == 5 && !withScores {
		return errReply(errSyntax)
	}
	start, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return errReply(err)
	}
	entries, err := e.DB.ZRange(string(args[1]), int(start), int(stop))
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, withScores)
}

func handleZRevRange(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrevrange", 4, 5); r != nil {
		return r
	}
	withScores := hasWithScores(args)
	if len(args) == 5 && !withScores {
		return errReply(errSyntax)
	}
	start, err := parseInt(args[2])
	if err != nil {
		return errReply(err)
	}
	stop, err := parseInt(args[3])
	if err != nil {
		return errReply(err)
	}
	entries, err := e.DB.ZRevRange(string(args[1]), int(start), int(stop))
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, withScores)
}

func handleZRangeByScore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrangebyscore", 4, 5); r != nil {
		return r
	}
	withScores := hasWithScores(args)
	if len(args) == 5 && !withScores {
		return errReply(errSyntax)
	}
	min, minExcl, err := parseScoreBound(args[2])
	if err != nil {
		return errReply(err)
	}
	max, maxExcl, err := parseScoreBound(args[3])
	if err != nil {
		return errReply(err)
	}
	entries, err := e.DB.ZRangeByScore(string(args[1]), min, max, minExcl, maxExcl)
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, withScores)
}

func handleZRevRangeByScore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrevrangebyscore", 4, 5); r != nil {
		return r
	}
	withScores := hasWithScores(args)
	if len(args) == 5 && !withScores {
		return errReply(errSyntax)
	}
	// ZREVRANGEBYSCORE takes max then min, reversed from ZRANGEBYSCORE.
	max, maxExcl, err := parseScoreBound(args[2])
	if err != nil {
		return errReply(err)
	}
	min, minExcl, err := parseScoreBound(args[3])
	if err != nil {
		return errReply(err)
	}
	entries, err := e.DB.ZRevRangeByScore(string(args[1]), min, max, minExcl, maxExcl)
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, withScores)
}

func handleZRank(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrank", 3, 3); r != nil {
		return r
	}
	rank, err := e.DB.ZRank(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if rank < 0 {
		return protocol.NullBulk()
	}
	return protocol.Integer(int64(rank))
}

func handleZRevRank(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zrevrank", 3, 3); r != nil {
		return r
	}
	rank, err := e.DB.ZRevRank(string(args[1]), string(args[2]))
	if err != nil {
		return errReply(err)
	}
	if rank < 0 {
		return protocol.NullBulk()
	}
	return protocol.Integer(int64(rank))
}

func handleZPopMin(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zpopmin", 2, 3); r != nil {
		return r
	}
	n := 1
	if len(args) == 3 {
		v, err := parseInt(args[2])
		if err != nil {
			return errReply(err)
		}
		n = int(v)
	}
	entries, err := e.DB.ZPopMin(string(args[1]), n)
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, true)
}

func handleZPopMax(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zpopmax", 2, 3); r != nil {
		return r
	}
	n := 1
	if len(args) == 3 {
		v, err := parseInt(args[2])
		if err != nil {
			return errReply(err)
		}
		n = int(v)
	}
	entries, err := e.DB.ZPopMax(string(args[1]), n)
	if err != nil {
		return errReply(err)
	}
	return entriesToReply(entries, true)
}

func handleZRemRangeByScore(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zremrangebyscore", 4, 4); r != nil {
		return r
	}
	min, minExcl, err := parseScoreBound(args[2])
	if err != nil {
		return errReply(err)
	}
	max, maxExcl, err := parseScoreBound(args[3])
	if err != nil {
		return errReply(err)
	}
	n, err := e.DB.ZRemRangeByScore(string(args[1]), min, max, minExcl, maxExcl)
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}

func handleZRemRangeByRank(e *Engine, conn *ConnState, args [][]byte) []byte {
	if r := arity(args, "zremrangebyrank", 4, 4); r != nil {
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
	n, err := e.DB.ZRemRangeByRank(string(args[1]), int(start), int(stop))
	if err != nil {
		return errReply(err)
	}
	return protocol.Integer(int64(n))
}
