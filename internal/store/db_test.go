package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringLifecycle(t *testing.T) {
	db := New()
	require.NoError(t, db.SetString("k", []byte("v"), nil))
	v, ok, err := db.GetString("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	kind, ok := db.Kind("k")
	assert.True(t, ok)
	assert.Equal(t, KindString, kind)

	assert.True(t, db.Delete("k"))
	assert.False(t, db.Exists("k"))
}

func TestCrossTypeOverwriteIsTypeError(t *testing.T) {
	db := New()
	require.NoError(t, db.SetString("k", []byte("v"), nil))
	_, err := db.HSet("k", "f", []byte("v"))
	assert.Error(t, err)
}

func TestExpireDeletesImmediatelyOnNonPositiveTTL(t *testing.T) {
	db := New()
	require.NoError(t, db.SetString("k", []byte("v"), nil))
	assert.True(t, db.Expire("k", -time.Second))
	assert.False(t, db.Exists("k"))
}

func TestLazyExpirationOnRead(t *testing.T) {
	db := New()
	ttl := time.Millisecond
	require.NoError(t, db.SetString("k", []byte("v"), &ttl))
	time.Sleep(5 * time.Millisecond)
	assert.False(t, db.Exists("k"))
}

func TestTouchBumpsRevisionAndFiresWriteHook(t *testing.T) {
	db := New()
	var fired []string
	db.SetWriteHook(func(key string) { fired = append(fired, key) })
	require.NoError(t, db.SetString("k", []byte("v"), nil))
	assert.Equal(t, uint64(1), db.Revision("k"))
	require.NoError(t, db.SetString("k", []byte("v2"), nil))
	assert.Equal(t, uint64(2), db.Revision("k"))
	assert.Equal(t, []string{"k", "k"}, fired)
}

func TestListDeletesKeyWhenEmptied(t *testing.T) {
	db := New()
	n, err := db.RPush("l", []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, _, err = db.LPop("l")
	require.NoError(t, err)
	_, _, err = db.LPop("l")
	require.NoError(t, err)
	assert.False(t, db.Exists("l"))
}

func TestHashSetNXAndDel(t *testing.T) {
	db := New()
	ok, err := db.HSetNX("h", "f", []byte("1"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.HSetNX("h", "f", []byte("2"))
	require.NoError(t, err)
	assert.False(t, ok)
	v, _, _ := db.HGet("h", "f")
	assert.Equal(t, []byte("1"), v)

	n, err := db.HDel("h", "f")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, db.Exists("h"))
}

func TestSetOperations(t *testing.T) {
	db := New()
	_, err := db.SAdd("s1", "a", "b", "c")
	require.NoError(t, err)
	_, err = db.SAdd("s2", "b", "c", "d")
	require.NoError(t, err)

	inter, err := db.SInter("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, inter)

	union, err := db.SUnion("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, union)

	diff, err := db.SDiff("s1", "s2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, diff)
}

func TestSMoveTouchesBothKeys(t *testing.T) {
	db := New()
	db.SAdd("src", "x")
	moved, err := db.SMove("src", "dst", "x")
	require.NoError(t, err)
	assert.True(t, moved)
	ok, _ := db.SIsMember("dst", "x")
	assert.True(t, ok)
	assert.False(t, db.Exists("src"))
}

func TestZSetBasics(t *testing.T) {
	db := New()
	added, err := db.ZAdd("z", map[string]float64{"a": 1, "b": 2, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	card, err := db.ZCard("z")
	require.NoError(t, err)
	assert.Equal(t, 3, card)

	rng, err := db.ZRange("z", 0, -1)
	require.NoError(t, err)
	require.Len(t, rng, 3)
	assert.Equal(t, "a", rng[0].Member)
	assert.Equal(t, "c", rng[2].Member)

	rank, err := db.ZRank("z", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	newScore, err := db.ZIncrBy("z", "a", 10)
	require.NoError(t, err)
	assert.Equal(t, float64(11), newScore)

	removed, err := db.ZRem("z", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestZSetEmptiedDeletesKey(t *testing.T) {
	db := New()
	db.ZAdd("z", map[string]float64{"a": 1})
	_, err := db.ZRem("z", "a")
	require.NoError(t, err)
	assert.False(t, db.Exists("z"))
}
