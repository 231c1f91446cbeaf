package dispatch

import "kvprotod/internal/resperr"

// registerCommands builds the full name -> Handler table, grouped the
// way the teacher's CommandHandler.registerCommands groups its
// register*Commands calls by category.
func (e *Engine) registerCommands() {
	e.commands = make(map[string]Handler)
	e.registerKeyCommands()
	e.registerStringCommands()
	e.registerHashCommands()
	e.registerListCommands()
	e.registerSetCommands()
	e.registerZSetCommands()
	e.registerBitmapCommands()
	e.registerHLLCommands()
	e.registerPubSubCommands()
	e.registerServerCommands()
}

// writeCommands is every command that mutates the keyspace, consulted
// both by the normal execute path and by EXEC to decide what gets
// replayed to the AOF (SPEC_FULL's persistence coordinator subscribes
// to onWrite for exactly these).
var writeCommands = map[string]bool{
	"SET": true, "SETEX": true, "PSETEX": true, "SETNX": true, "GETSET": true,
	"APPEND": true, "INCR": true, "INCRBY": true, "DECR": true, "DECRBY": true,
	"MSET": true,

	"HSET": true, "HSETNX": true, "HDEL": true, "HMSET": true,

	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true, "LSET": true,
	"LREM": true, "LTRIM": true, "LINSERT": true,

	"SADD": true, "SREM": true, "SMOVE": true, "SPOP": true,
	"SINTERSTORE": true, "SUNIONSTORE": true, "SDIFFSTORE": true,

	"ZADD": true, "ZREM": true, "ZINCRBY": true, "ZPOPMIN": true, "ZPOPMAX": true,
	"ZREMRANGEBYSCORE": true, "ZREMRANGEBYRANK": true,

	"SETBIT": true, "BITOP": true,

	"PFADD": true, "PFMERGE": true,

	"DEL": true, "UNLINK": true, "EXPIRE": true, "PEXPIRE": true,
	"PERSIST": true, "FLUSHALL": true, "FLUSHDB": true, "RENAME": true,
}

func isWriteCommand(name string) bool {
	return writeCommands[name]
}

// arityBounds is {min, max} argument counts (including the command name
// itself at index 0), max -1 meaning unbounded. Mirrors the bounds each
// handler already enforces via the arity() helper, duplicated here so a
// command queued inside MULTI can be checked before its handler ever
// runs (spec.md §4.6). Handlers with parity constraints beyond a simple
// min/max (MSET, HSET, HMSET, ZADD) are deliberately under-constrained
// here; the handler's own check still applies at EXEC time.
var arityBounds = map[string][2]int{
	"PING": {1, 2}, "ECHO": {2, 2}, "COMMAND": {1, 1}, "INFO": {1, 2},
	"CONFIG": {2, -1}, "DBSIZE": {1, 1}, "SELECT": {2, 2},
	"SAVE": {1, 1}, "BGSAVE": {1, 1}, "LASTSAVE": {1, 1}, "SHUTDOWN": {1, 2},

	"SET": {3, -1}, "SETEX": {4, 4}, "PSETEX": {4, 4}, "SETNX": {3, 3},
	"GET": {2, 2}, "GETSET": {3, 3}, "APPEND": {3, 3}, "STRLEN": {2, 2},
	"INCR": {2, 2}, "INCRBY": {3, 3}, "DECR": {2, 2}, "DECRBY": {3, 3},
	"MSET": {3, -1}, "MGET": {2, -1},

	"HSET": {4, -1}, "HSETNX": {4, 4}, "HGET": {3, 3}, "HDEL": {3, -1},
	"HGETALL": {2, 2}, "HKEYS": {2, 2}, "HVALS": {2, 2}, "HLEN": {2, 2},
	"HEXISTS": {3, 3}, "HMGET": {3, -1}, "HMSET": {4, -1},

	"LPUSH": {3, -1}, "RPUSH": {3, -1}, "LPOP": {2, 2}, "RPOP": {2, 2},
	"LLEN": {2, 2}, "LRANGE": {4, 4}, "LINDEX": {3, 3}, "LSET": {4, 4},
	"LREM": {4, 4}, "LTRIM": {4, 4}, "LINSERT": {5, 5},

	"SADD": {3, -1}, "SREM": {3, -1}, "SCARD": {2, 2}, "SMEMBERS": {2, 2},
	"SISMEMBER": {3, 3}, "SMOVE": {4, 4}, "SPOP": {2, 3}, "SRANDMEMBER": {2, 3},
	"SINTER": {2, -1}, "SUNION": {2, -1}, "SDIFF": {2, -1},
	"SINTERSTORE": {3, -1}, "SUNIONSTORE": {3, -1}, "SDIFFSTORE": {3, -1},

	"ZADD": {4, -1}, "ZREM": {3, -1}, "ZCARD": {2, 2}, "ZSCORE": {3, 3},
	"ZINCRBY": {4, 4}, "ZCOUNT": {4, 4}, "ZRANGE": {4, 5}, "ZREVRANGE": {4, 5},
	"ZRANGEBYSCORE": {4, 5}, "ZREVRANGEBYSCORE": {4, 5}, "ZRANK": {3, 3},
	"ZREVRANK": {3, 3}, "ZPOPMIN": {2, 3}, "ZPOPMAX": {2, 3},
	"ZREMRANGEBYSCORE": {4, 4}, "ZREMRANGEBYRANK": {4, 4},

	"SETBIT": {4, 4}, "GETBIT": {3, 3}, "BITCOUNT": {2, 4}, "BITPOS": {3, 5},
	"BITOP": {4, -1},

	"PFADD": {2, -1}, "PFCOUNT": {2, -1}, "PFMERGE": {2, -1},

	"DEL": {2, -1}, "UNLINK": {2, -1}, "EXISTS": {2, -1}, "EXPIRE": {3, 3},
	"PEXPIRE": {3, 3}, "PERSIST": {2, 2}, "TTL": {2, 2}, "PTTL": {2, 2},
	"KEYS": {2, 2}, "TYPE": {2, 2}, "FLUSHALL": {1, 1}, "FLUSHDB": {1, 1},
	"RENAME": {3, 3},

	"SUBSCRIBE": {2, -1}, "UNSUBSCRIBE": {1, -1}, "PUBLISH": {3, 3}, "PUBSUB": {2, -1},
}

// validateQueueable checks that a command about to be queued inside
// MULTI is a real, known-arity command, without running its handler.
// Returns nil when the command is fine to queue.
func validateQueueable(name string, args [][]byte) *resperr.Error {
	bounds, ok := arityBounds[name]
	if !ok {
		return resperr.UnknownCommand(name)
	}
	n := len(args)
	if n < bounds[0] || (bounds[1] >= 0 && n > bounds[1]) {
		return resperr.WrongArity(name)
	}
	return nil
}
