package protocol

import (
	"bytes"
	"fmt"
	"strconv"
)

// TryParseOne implements the parser contract of spec.md §4.1: given an
// append-only byte buffer, it returns either a parsed Command and the
// number of bytes consumed, or (nil, 0, nil) to signal "incomplete — wait
// for more bytes", or (nil, 0, err) to signal a malformed frame. Callers
// that hit a non-nil err should treat the connection as desynchronized
// and close it (the safer default spec.md §4.1 calls out).
func TryParseOne(buf []byte) (*Command, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}

	switch buf[0] {
	case '*':
		return parseArray(buf)
	case '$', '+', '-', ':':
		return nil, 0, fmt.Errorf("unexpected top-level RESP type %q", buf[0])
	default:
		return parseInline(buf)
	}
}

func findCRLF(buf []byte) int {
	return bytes.Index(buf, []byte("\r\n"))
}

func parseInline(buf []byte) (*Command, int, error) {
	nl := bytes.IndexByte(buf, '\n')
	if nl == -1 {
		if len(buf) > maxInlineLine {
			return nil, 0, fmt.Errorf("inline command too long")
		}
		return nil, 0, nil
	}
	line := buf[:nl+1]
	trimmed := bytes.TrimRight(buf[:nl], "\r")
	fields := bytes.Fields(trimmed)
	if len(fields) == 0 {
		return &Command{Args: nil}, len(line), nil
	}
	args := make([][]byte, len(fields))
	copy(args, fields)
	return &Command{Args: args}, len(line), nil
}

const maxInlineLine = 64 * 1024

func parseArray(buf []byte) (*Command, int, error) {
	crlf := findCRLF(buf)
	if crlf == -1 {
		return nil, 0, nil
	}
	count, err := strconv.Atoi(string(buf[1:crlf]))
	if err != nil {
		return nil, 0, fmt.Errorf("invalid array length: %w", err)
	}
	idx := crlf + 2
	if count < 0 {
		// null array; treat as empty command rather than a protocol error
		return &Command{Args: nil}, idx, nil
	}

	args := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if idx >= len(buf) {
			return nil, 0, nil
		}
		if buf[idx] != '$' {
			return nil, 0, fmt.Errorf("expected bulk string, got %q", buf[idx])
		}
		rest := buf[idx:]
		bcrlf := findCRLF(rest)
		if bcrlf == -1 {
			return nil, 0, nil
		}
		length, err := strconv.Atoi(string(rest[1:bcrlf]))
		if err != nil {
			return nil, 0, fmt.Errorf("invalid bulk string length: %w", err)
		}
		headerLen := bcrlf + 2
		if length < 0 {
			args = append(args, nil)
			idx += headerLen
			continue
		}
		total := headerLen + length + 2
		if len(rest) < total {
			return nil, 0, nil
		}
		if rest[headerLen+length] != '\r' || rest[headerLen+length+1] != '\n' {
			return nil, 0, fmt.Errorf("bulk string missing terminating CRLF")
		}
		data := make([]byte, length)
		copy(data, rest[headerLen:headerLen+length])
		args = append(args, data)
		idx += total
	}

	return &Command{Args: args}, idx, nil
}
