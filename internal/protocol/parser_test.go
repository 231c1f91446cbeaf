package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryParseOne_Array(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n")
	cmd, n, err := TryParseOne(buf)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, "GET", cmd.Name())
	assert.Equal(t, [][]byte{[]byte("GET"), []byte("foo")}, cmd.Args)
}

func TestTryParseOne_Incomplete(t *testing.T) {
	buf := []byte("*2\r\n$3\r\nGET\r\n$3\r\nfo")
	cmd, n, err := TryParseOne(buf)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, n)
}

func TestTryParseOne_BinarySafe(t *testing.T) {
	val := []byte("a\x00b\r\nc")
	buf := Array([][]byte{BulkString([]byte("SET")), BulkString([]byte("k")), BulkString(val)})
	cmd, n, err := TryParseOne(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, val, cmd.Args[2])
}

func TestTryParseOne_Inline(t *testing.T) {
	buf := []byte("PING\r\n")
	cmd, n, err := TryParseOne(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, "PING", cmd.Name())
}

func TestTryParseOne_Malformed(t *testing.T) {
	buf := []byte("*2\r\n:5\r\n$3\r\nfoo\r\n")
	_, _, err := TryParseOne(buf)
	assert.Error(t, err)
}

func TestEncodeSimpleString_StripsCRLF(t *testing.T) {
	out := SimpleString("hello\r\nworld")
	assert.Equal(t, []byte("+hello world\r\n"), out)
}

func TestEncodeBulkString_Null(t *testing.T) {
	assert.Equal(t, []byte("$-1\r\n"), BulkString(nil))
}

func TestEncodeArray_Nested(t *testing.T) {
	out := Array([][]byte{Integer(1), BulkString([]byte("a")), NullBulk()})
	assert.Equal(t, []byte("*3\r\n:1\r\n$1\r\na\r\n$-1\r\n"), out)
}
