package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAOFAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	cfg := AOFConfig{Dir: dir, Filename: "appendonly.aof", SyncPolicy: SyncAlways}

	w, err := NewAOFWriter(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Append([][]byte{[]byte("SET"), []byte("k"), []byte("v")}))
	require.NoError(t, w.Append([][]byte{[]byte("INCR"), []byte("n")}))
	require.NoError(t, w.Close())

	r := NewAOFReader(cfg)
	assert.True(t, r.Exists())
	commands, err := r.LoadAll()
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, [][]byte{[]byte("SET"), []byte("k"), []byte("v")}, commands[0])
	assert.Equal(t, [][]byte{[]byte("INCR"), []byte("n")}, commands[1])
}

func TestAOFReaderMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	r := NewAOFReader(AOFConfig{Dir: dir, Filename: "absent.aof"})
	assert.False(t, r.Exists())
	commands, err := r.LoadAll()
	assert.NoError(t, err)
	assert.Nil(t, commands)
}

func TestAOFRewriteCompactsToSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := AOFConfig{Dir: dir, Filename: "appendonly.aof", SyncPolicy: SyncNo}

	w, err := NewAOFWriter(cfg)
	require.NoError(t, err)
	require.NoError(t, w.Append([][]byte{[]byte("SET"), []byte("a"), []byte("1")}))
	require.NoError(t, w.Append([][]byte{[]byte("SET"), []byte("a"), []byte("2")}))

	snapshot := [][][]byte{{[]byte("SET"), []byte("a"), []byte("2")}}
	require.NoError(t, w.Rewrite(func() [][][]byte { return snapshot }))
	require.NoError(t, w.Close())

	r := NewAOFReader(cfg)
	commands, err := r.LoadAll()
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, [][]byte{[]byte("SET"), []byte("a"), []byte("2")}, commands[0])
}

func TestAOFSizeGrowsWithAppends(t *testing.T) {
	dir := t.TempDir()
	cfg := AOFConfig{Dir: dir, Filename: "appendonly.aof", SyncPolicy: SyncAlways}
	w, err := NewAOFWriter(cfg)
	require.NoError(t, err)
	defer w.Close()

	before, err := w.Size()
	require.NoError(t, err)
	require.NoError(t, w.Append([][]byte{[]byte("SET"), []byte("k"), []byte("v")}))
	after, err := w.Size()
	require.NoError(t, err)
	assert.Greater(t, after, before)
}
