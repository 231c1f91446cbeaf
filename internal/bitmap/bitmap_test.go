package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBitGrowsAndReturnsOld(t *testing.T) {
	data, old, err := SetBit(nil, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, old)
	assert.Equal(t, []byte{0x01}, data)

	data, old, err = SetBit(data, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, old)
	assert.Equal(t, []byte{0x00}, data)
}

func TestGetBitBeyondLengthIsZero(t *testing.T) {
	v, err := GetBit([]byte{0xff}, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestCountWholeString(t *testing.T) {
	assert.Equal(t, int64(8), Count([]byte{0xff}, nil, nil))
	assert.Equal(t, int64(0), Count(nil, nil, nil))
}

func TestPosFindsFirstSetBit(t *testing.T) {
	assert.Equal(t, int64(7), Pos([]byte{0x01}, 1, nil, nil))
	assert.Equal(t, int64(-1), Pos([]byte{0xff}, 0, nil, nil))
}

func TestBitOpAndOrXorNot(t *testing.T) {
	a := []byte{0b1100}
	b := []byte{0b1010}
	assert.Equal(t, []byte{0b1000}, And([][]byte{a, b}))
	assert.Equal(t, []byte{0b1110}, Or([][]byte{a, b}))
	assert.Equal(t, []byte{0b0110}, Xor([][]byte{a, b}))
	assert.Equal(t, []byte{^byte(0b1100)}, Not(a))
}
