package dispatch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvprotod/internal/protocol"
	"kvprotod/internal/pubsub"
	"kvprotod/internal/store"
	"kvprotod/internal/txn"
)

func newTestEngine() *Engine {
	return New(store.New(), pubsub.New(), txn.NewManager(), nil, 16)
}

func submit(e *Engine, connID int64, parts ...string) []byte {
	args := make([][]byte, len(parts))
	for i, p := range parts {
		args[i] = []byte(p)
	}
	return e.Submit(&ConnState{ID: connID}, &protocol.Command{Args: args})
}

func TestSetGet(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	assert.Equal(t, protocol.SimpleString("OK"), submit(e, 1, "SET", "k", "v"))
	assert.Equal(t, protocol.BulkString([]byte("v")), submit(e, 1, "GET", "k"))
}

func TestIncrPreservesTTL(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "SET", "k", "10", "EX", "100")
	submit(e, 1, "INCR", "k")
	ttl := submit(e, 1, "TTL", "k")
	assert.NotEqual(t, protocol.Integer(-1), ttl, "INCR must not clear an existing TTL")
}

func TestWrongTypeError(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "SET", "k", "v")
	reply := submit(e, 1, "LPUSH", "k", "x")
	assert.Contains(t, string(reply), "WRONGTYPE")
}

func TestMultiExecQueuesAndRuns(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	assert.Equal(t, protocol.SimpleString("OK"), submit(e, 1, "MULTI"))
	assert.Equal(t, protocol.SimpleString("QUEUED"), submit(e, 1, "SET", "a", "1"))
	assert.Equal(t, protocol.SimpleString("QUEUED"), submit(e, 1, "INCR", "a"))
	reply := submit(e, 1, "EXEC")
	require.Contains(t, string(reply), "*2")
	assert.Equal(t, protocol.BulkString([]byte("2")), submit(e, 1, "GET", "a"))
}

func TestWatchAbortsExecOnConflict(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "SET", "k", "1")
	submit(e, 1, "WATCH", "k")
	submit(e, 1, "MULTI")
	submit(e, 1, "SET", "k", "2")

	// a different connection writes the watched key before EXEC
	submit(e, 2, "SET", "k", "99")

	reply := submit(e, 1, "EXEC")
	assert.Equal(t, protocol.NullArray(), reply)
	assert.Equal(t, protocol.BulkString([]byte("99")), submit(e, 1, "GET", "k"))
}

func TestUnknownCommand(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	reply := submit(e, 1, "NOTACOMMAND")
	assert.Contains(t, string(reply), "ERR")
}

// TestMultiAbortsOnMalformedQueuedCommand exercises spec.md §4.6's
// EXECABORT path: an unknown command queued mid-MULTI must mark the
// transaction dirty and discard the whole batch at EXEC, not just the
// one bad slot.
func TestMultiAbortsOnMalformedQueuedCommand(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()

	assert.Equal(t, protocol.SimpleString("OK"), submit(e, 1, "MULTI"))
	reply := submit(e, 1, "NOTACOMMAND", "x")
	assert.Contains(t, string(reply), "ERR")
	assert.NotEqual(t, protocol.SimpleString("QUEUED"), reply)
	assert.Equal(t, protocol.SimpleString("QUEUED"), submit(e, 1, "SET", "a", "1"))

	reply = submit(e, 1, "EXEC")
	assert.Contains(t, string(reply), "EXECABORT")

	// the queued SET must never have run.
	assert.Equal(t, protocol.NullBulk(), submit(e, 1, "GET", "a"))
}

// TestMultiAbortsOnWrongArityQueuedCommand covers the arity half of
// queue-time validation: a known command with too few arguments must
// abort the transaction the same way an unknown command does.
func TestMultiAbortsOnWrongArityQueuedCommand(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()

	submit(e, 1, "MULTI")
	reply := submit(e, 1, "GET")
	assert.Contains(t, string(reply), "ERR")

	reply = submit(e, 1, "EXEC")
	assert.Contains(t, string(reply), "EXECABORT")
}

func TestExpireAndTTL(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "SET", "k", "v")
	assert.Equal(t, protocol.Integer(1), submit(e, 1, "EXPIRE", "k", "100"))
	reply := submit(e, 1, "TTL", "k")
	assert.NotEqual(t, protocol.Integer(-1), reply)
	assert.NotEqual(t, protocol.Integer(-2), reply)
	submit(e, 1, "PERSIST", "k")
	assert.Equal(t, protocol.Integer(-1), submit(e, 1, "TTL", "k"))
}

func TestHashRoundTrip(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "HSET", "h", "f1", "v1", "f2", "v2")
	assert.Equal(t, protocol.Integer(2), submit(e, 1, "HLEN", "h"))
	assert.Equal(t, protocol.BulkString([]byte("v1")), submit(e, 1, "HGET", "h", "f1"))
}

func TestZSetBasics(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	submit(e, 1, "ZADD", "z", "1", "a", "2", "b")
	assert.Equal(t, protocol.Integer(2), submit(e, 1, "ZCARD", "z"))
	rank := submit(e, 1, "ZRANK", "z", "a")
	assert.Equal(t, protocol.Integer(0), rank)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()
	assert.Equal(t, protocol.Integer(0), submit(e, 1, "PUBLISH", "ch", "hello"))
}

// TestShutdownRepliesBeforeRunningHook exercises spec.md §4.9: SHUTDOWN
// must hand back its acknowledgement on the executor goroutine and run
// the shutdown hook afterward, not block the reply on it.
func TestShutdownRepliesBeforeRunningHook(t *testing.T) {
	e := newTestEngine()
	defer e.Stop()

	var hookRan atomic.Bool
	e.SetShutdownHook(func() { hookRan.Store(true) })

	reply := submit(e, 1, "SHUTDOWN", "NOSAVE")
	assert.Equal(t, protocol.SimpleString("OK - shutting down"), reply)

	require.Eventually(t, hookRan.Load, time.Second, time.Millisecond)
}
