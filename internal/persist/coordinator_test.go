package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvprotod/internal/store"
)

func TestCoordinatorRecoversFromAOFInPreferenceToRDB(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Dir:         dir,
		RDBEnabled:  true,
		RDBFilename: "dump.rdb",
		AOFEnabled:  true,
		AOFFilename: "appendonly.aof",
	}

	seedCoord, err := New(cfg, seedDB(t))
	require.NoError(t, err)
	require.NoError(t, seedCoord.Save())
	seedCoord.OnWrite("SET", [][]byte{[]byte("SET"), []byte("extra"), []byte("via-aof")})
	require.NoError(t, seedCoord.Shutdown(false))

	freshDB := store.New()
	coord, err := New(cfg, freshDB)
	require.NoError(t, err)

	var replayed [][][]byte
	require.NoError(t, coord.Recover(func(args [][]byte) {
		replayed = append(replayed, args)
		switch string(args[0]) {
		case "SET":
			freshDB.SetString(string(args[1]), args[2], nil)
		}
	}))

	require.Len(t, replayed, 1)
	val, ok, err := freshDB.GetString("extra")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("via-aof"), val)

	// the RDB-seeded keys were NOT replayed, since AOF recovery skips RDB entirely
	_, ok, err = freshDB.GetString("greeting")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoordinatorFallsBackToRDBWhenNoAOF(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir, RDBEnabled: true, RDBFilename: "dump.rdb"}

	coord, err := New(cfg, seedDB(t))
	require.NoError(t, err)
	require.NoError(t, coord.Save())

	freshDB := store.New()
	restoreCoord, err := New(cfg, freshDB)
	require.NoError(t, err)
	require.NoError(t, restoreCoord.Recover(func(args [][]byte) {
		t.Fatalf("replay should not be invoked when AOF is disabled")
	}))

	val, ok, err := freshDB.GetString("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), val)
}

func TestCoordinatorAutoSaveEligibility(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Dir:            dir,
		RDBEnabled:     true,
		RDBFilename:    "dump.rdb",
		SaveSeconds:    0,
		SaveMinChanges: 3,
	}
	coord, err := New(cfg, store.New())
	require.NoError(t, err)

	assert.False(t, coord.AutoSaveEligible())
	coord.OnWrite("SET", [][]byte{[]byte("SET"), []byte("a"), []byte("1")})
	coord.OnWrite("SET", [][]byte{[]byte("SET"), []byte("b"), []byte("1")})
	assert.False(t, coord.AutoSaveEligible())
	coord.OnWrite("SET", [][]byte{[]byte("SET"), []byte("c"), []byte("1")})
	assert.True(t, coord.AutoSaveEligible())

	require.NoError(t, coord.Save())
	assert.False(t, coord.AutoSaveEligible())
}

func TestCoordinatorRewriteEligibility(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Dir:                dir,
		AOFEnabled:         true,
		AOFFilename:        "appendonly.aof",
		AOFRewriteMinBytes: 10,
	}
	coord, err := New(cfg, store.New())
	require.NoError(t, err)

	assert.False(t, coord.RewriteEligible())
	coord.OnWrite("SET", [][]byte{[]byte("SET"), []byte("somewhatlongkey"), []byte("somewhatlongvalue")})
	assert.True(t, coord.RewriteEligible())
	require.NoError(t, coord.Rewrite())
}
