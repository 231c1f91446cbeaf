package persist

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvprotod/internal/store"
)

func seedDB(t *testing.T) *store.DB {
	t.Helper()
	db := store.New()
	require.NoError(t, db.SetString("greeting", []byte("hello"), nil))
	_, err := db.HSet("profile", "name", []byte("ada"))
	require.NoError(t, err)
	_, err = db.RPush("queue", []byte("a"), []byte("b"))
	require.NoError(t, err)
	_, err = db.SAdd("tags", "x", "y")
	require.NoError(t, err)
	_, err = db.ZAdd("ranking", map[string]float64{"alice": 1, "bob": 2})
	require.NoError(t, err)
	db.Expire("greeting", 100*time.Second)
	return db
}

func TestRDBSaveAndRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := RDBConfig{Dir: dir, Filename: "dump.rdb"}
	db := seedDB(t)

	w := NewRDBWriter(cfg)
	require.NoError(t, w.Save(db))

	restored := store.New()
	r := NewRDBReader(cfg)
	require.NoError(t, r.Restore(restored))

	val, ok, err := restored.GetString("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), val)
	assert.Greater(t, restored.TTLSeconds("greeting"), int64(0))

	h, err := restored.HGetAll("profile")
	require.NoError(t, err)
	assert.Equal(t, []byte("ada"), h["name"])

	items, err := restored.LRange("queue", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, items)

	members, err := restored.SMembers("tags")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, members)

	entries, err := restored.ZRange("ranking", 0, -1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Member)
	assert.Equal(t, float64(1), entries[0].Score)
}

func TestRDBCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := RDBConfig{Dir: dir, Filename: "dump.rdb", Compress: true}
	db := seedDB(t)

	w := NewRDBWriter(cfg)
	require.NoError(t, w.Save(db))

	restored := store.New()
	r := NewRDBReader(cfg)
	require.NoError(t, r.Restore(restored))

	val, ok, err := restored.GetString("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), val)
}

func TestRDBReaderMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	r := NewRDBReader(RDBConfig{Dir: dir, Filename: "absent.rdb"})
	assert.False(t, r.Exists())
	entries, err := r.Load()
	assert.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRDBChecksumMismatchIsRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := RDBConfig{Dir: dir, Filename: "dump.rdb"}
	db := seedDB(t)
	w := NewRDBWriter(cfg)
	require.NoError(t, w.Save(db))

	data, err := os.ReadFile(cfg.path())
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF // flip a bit of the checksum
	require.NoError(t, os.WriteFile(cfg.path(), data, 0644))

	r := NewRDBReader(cfg)
	_, err = r.Load()
	assert.Error(t, err)
}
