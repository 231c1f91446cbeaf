package protocol

import (
	"strconv"
	"strings"
)

// SimpleString encodes a RESP simple string. CR/LF in s would desync the
// frame, so the encoder replaces them with spaces rather than refusing to
// encode at all.
func SimpleString(s string) []byte {
	s = sanitizeSimple(s)
	out := make([]byte, 0, len(s)+3)
	out = append(out, '+')
	out = append(out, s...)
	return append(out, '\r', '\n')
}

func sanitizeSimple(s string) string {
	if strings.ContainsAny(s, "\r\n") {
		s = strings.ReplaceAll(s, "\r", " ")
		s = strings.ReplaceAll(s, "\n", " ")
	}
	return s
}

// Error encodes a RESP error reply. msg should already carry its prefix
// (e.g. "ERR ..." or "WRONGTYPE ...").
func Error(msg string) []byte {
	msg = sanitizeSimple(msg)
	out := make([]byte, 0, len(msg)+3)
	out = append(out, '-')
	out = append(out, msg...)
	return append(out, '\r', '\n')
}

// Integer encodes a RESP integer reply.
func Integer(i int64) []byte {
	return []byte(":" + strconv.FormatInt(i, 10) + "\r\n")
}

// BulkString encodes a binary-safe bulk string. A nil slice encodes the
// RESP null bulk string ($-1\r\n); an empty non-nil slice encodes an
// empty bulk string ($0\r\n\r\n) — callers should pass nil to mean "no
// value" and []byte{} to mean "empty value".
func BulkString(b []byte) []byte {
	if b == nil {
		return NullBulk()
	}
	out := make([]byte, 0, len(b)+16)
	out = append(out, '$')
	out = strconv.AppendInt(out, int64(len(b)), 10)
	out = append(out, '\r', '\n')
	out = append(out, b...)
	return append(out, '\r', '\n')
}

// NullBulk encodes the RESP null bulk string.
func NullBulk() []byte {
	return []byte("$-1\r\n")
}

// NullArray encodes the RESP null array, used for the EXEC reply when a
// watched key changed.
func NullArray() []byte {
	return []byte("*-1\r\n")
}

// Array wraps already-encoded reply byte-strings in a RESP array header.
// This is how heterogeneous replies (integers, bulk strings, nested
// arrays, nulls) compose, and how EXEC assembles its queued results.
func Array(items [][]byte) []byte {
	size := 0
	for _, it := range items {
		size += len(it)
	}
	out := make([]byte, 0, size+16)
	out = append(out, '*')
	out = strconv.AppendInt(out, int64(len(items)), 10)
	out = append(out, '\r', '\n')
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// BulkStringArray is a convenience wrapper for the common case of an
// array of bulk strings (nil entries become null bulk strings).
func BulkStringArray(items [][]byte) []byte {
	encoded := make([][]byte, len(items))
	for i, it := range items {
		encoded[i] = BulkString(it)
	}
	return Array(encoded)
}
