// Package resperr defines the typed command-level errors the dispatcher
// converts into RESP error replies. Every error kind named in spec.md §7
// has a constructor here. Most handlers build their error replies from
// these; the transaction and pub/sub-mode state errors in the dispatcher
// are still written out as literal "ERR …" strings.
package resperr

import "fmt"

// Kind classifies a command-level error for logging and INFO reporting.
type Kind int

const (
	KindProtocol Kind = iota
	KindArity
	KindType
	KindRange
	KindState
	KindIO
	KindUnknownCommand
	KindOOM
	KindAbort
)

// Error is a command-level error carrying the RESP error prefix (default
// "ERR") the dispatcher writes back to the client.
type Error struct {
	Kind   Kind
	Prefix string
	Msg    string
}

func (e *Error) Error() string {
	if e.Prefix == "" {
		return e.Msg
	}
	return e.Prefix + " " + e.Msg
}

func newErr(kind Kind, prefix, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Prefix: prefix, Msg: fmt.Sprintf(format, args...)}
}

// UnknownCommand builds the "unknown command" error spec.md §4.5 requires.
func UnknownCommand(name string) *Error {
	return newErr(KindUnknownCommand, "ERR", "unknown command '%s'", name)
}

// WrongArity builds the "wrong number of arguments" error spec.md §4.5 requires.
func WrongArity(name string) *Error {
	return newErr(KindArity, "ERR", "wrong number of arguments for '%s'", name)
}

// WrongType signals an operation against a key holding an incompatible type.
func WrongType() *Error {
	return &Error{Kind: KindType, Prefix: "WRONGTYPE", Msg: "Operation against a key holding the wrong kind of value"}
}

// NotInteger signals a non-numeric argument where an integer was required.
func NotInteger() *Error {
	return newErr(KindType, "ERR", "value is not an integer or out of range")
}

// NotFloat signals a non-numeric argument where a float was required.
func NotFloat() *Error {
	return newErr(KindType, "ERR", "value is not a valid float")
}

// Range signals an out-of-range offset or index.
func Range(format string, args ...interface{}) *Error {
	return newErr(KindRange, "ERR", format, args...)
}

// State signals a protocol state violation (EXEC without MULTI, nested MULTI, ...).
func State(format string, args ...interface{}) *Error {
	return newErr(KindState, "ERR", format, args...)
}

// IO signals a persistence-layer failure (SAVE failed, AOF append failed, ...).
func IO(format string, args ...interface{}) *Error {
	return newErr(KindIO, "ERR", format, args...)
}

// Generic wraps an arbitrary message as an ERR-prefixed command error.
func Generic(format string, args ...interface{}) *Error {
	return newErr(KindType, "ERR", format, args...)
}

// OOM signals that a write would exceed the configured memory budget.
func OOM() *Error {
	return &Error{Kind: KindOOM, Prefix: "OOM", Msg: "command not allowed when used memory > 'maxmemory'"}
}

// ExecAbort signals that EXEC is refusing to run a queued transaction
// because one of the commands queued into it failed name/arity
// validation at queue time.
func ExecAbort(format string, args ...interface{}) *Error {
	return newErr(KindAbort, "EXECABORT", format, args...)
}

// Protocol signals malformed RESP framing.
func Protocol(format string, args ...interface{}) *Error {
	return newErr(KindProtocol, "ERR Protocol error", format, args...)
}
