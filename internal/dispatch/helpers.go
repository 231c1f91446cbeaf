package dispatch

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"kvprotod/internal/protocol"
	"kvprotod/internal/resperr"
)

// arity reports whether len(args) falls within [min, max] (max < 0 means
// unbounded), returning a ready-to-send wrong-arity error otherwise.
func arity(args [][]byte, name string, min, max int) []byte {
	n := len(args)
	if n < min || (max >= 0 && n > max) {
		return protocol.Error(resperr.WrongArity(name).Error())
	}
	return nil
}

func parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, resperr.NotInteger()
	}
	return n, nil
}

func parseFloat(b []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, resperr.NotFloat()
	}
	return f, nil
}

func errReply(err error) []byte {
	return protocol.Error(err.Error())
}

func okReply() []byte {
	return protocol.SimpleString("OK")
}

var errSyntax = resperr.Generic("syntax error")

// checkMemory reports an OOM error if writing addedBytes more would push
// the database past e.MaxMemoryBytes (0 means unbounded). Mirrors the
// teacher's warn-and-continue style (e.g. "Continuing without cluster
// support") by logging the rejection before returning it.
func checkMemory(e *Engine, addedBytes int) error {
	if e.MaxMemoryBytes <= 0 {
		return nil
	}
	if e.DB.MemoryBytes()+int64(addedBytes) <= e.MaxMemoryBytes {
		return nil
	}
	e.Log.Warnw("rejecting write over memory budget", "limit", e.MaxMemoryBytes, "used", e.DB.MemoryBytes())
	return resperr.OOM()
}

func upperString(b []byte) string {
	return strings.ToUpper(string(b))
}

func strs(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

var (
	globCacheMu sync.Mutex
	globCache   = make(map[string]*regexp.Regexp)
)

// matchGlob matches name against a Redis-style KEYS/PUBSUB glob pattern
// (* and ? wildcards), same translation as pubsub.Hub's matcher.
func matchGlob(pattern, name string) bool {
	globCacheMu.Lock()
	re, ok := globCache[pattern]
	if !ok {
		quoted := regexp.QuoteMeta(pattern)
		quoted = strings.ReplaceAll(quoted, `\*`, ".*")
		quoted = strings.ReplaceAll(quoted, `\?`, ".")
		compiled, err := regexp.Compile("^" + quoted + "$")
		if err != nil {
			globCacheMu.Unlock()
			return false
		}
		globCache[pattern] = compiled
		re = compiled
	}
	globCacheMu.Unlock()
	return re.MatchString(name)
}
