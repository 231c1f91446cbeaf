package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBitAndBitCount(t *testing.T) {
	db := New()
	old, err := db.SetBit("bm", 7, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, old)

	count, err := db.BitCount("bm", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBitOpAndStoresResult(t *testing.T) {
	db := New()
	require.NoError(t, db.SetString("a", []byte{0b1100}, nil))
	require.NoError(t, db.SetString("b", []byte{0b1010}, nil))
	n, err := db.BitOp("AND", "dest", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	v, _, _ := db.GetString("dest")
	assert.Equal(t, []byte{0b1000}, v)
}

func TestPFAddAndCount(t *testing.T) {
	db := New()
	updated, err := db.PFAdd("hll", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	assert.True(t, updated)

	count, err := db.PFCount("hll")
	require.NoError(t, err)
	assert.InDelta(t, 3, count, 1)
}

func TestPFMergeUnion(t *testing.T) {
	db := New()
	_, err := db.PFAdd("h1", []byte("a"), []byte("b"))
	require.NoError(t, err)
	_, err = db.PFAdd("h2", []byte("b"), []byte("c"))
	require.NoError(t, err)

	require.NoError(t, db.PFMerge("dest", "h1", "h2"))
	count, err := db.PFCount("dest")
	require.NoError(t, err)
	assert.InDelta(t, 3, count, 1)
}
