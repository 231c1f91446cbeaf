package store

import "kvprotod/internal/resperr"

// errWrongType is returned by checkType when a key exists under a
// different Kind than the caller requires.
var (
	errWrongType    = resperr.WrongType()
	errInvalidBitOp = resperr.Generic("syntax error in BITOP")
	errNoSuchKey    = resperr.Generic("no such key")

	// ErrNoSuchKey is exposed for callers (e.g. the dispatcher) that need
	// to recognize RENAME's "source key does not exist" case specifically.
	ErrNoSuchKey = errNoSuchKey
)
