package sortedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRange(t *testing.T) {
	s := New()
	assert.True(t, s.Add("a", 100))
	assert.True(t, s.Add("b", 75))
	assert.True(t, s.Add("c", 150))
	assert.False(t, s.Add("a", 200)) // update, not new
	assert.Equal(t, 3, s.Card())

	entries := s.RangeByRank(0, s.Card()-1)
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Member)
	assert.Equal(t, "c", entries[1].Member)
	assert.Equal(t, "a", entries[2].Member)
}

func TestIncrByInsertsMissing(t *testing.T) {
	s := New()
	score := s.IncrBy("x", 5)
	assert.Equal(t, float64(5), score)
	score = s.IncrBy("x", 3)
	assert.Equal(t, float64(8), score)
}

func TestRangeByScore(t *testing.T) {
	s := New()
	s.Add("a", 100)
	s.Add("b", 75)
	s.Add("c", 150)
	entries := s.RangeByScore(100, 200, false, false)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Member)
	assert.Equal(t, "c", entries[1].Member)
}

func TestRemoveAndCardConsistency(t *testing.T) {
	s := New()
	s.Add("a", 1)
	s.Add("b", 2)
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 1, s.Card())
}

func TestRankAndRevRank(t *testing.T) {
	s := New()
	s.Add("a", 1)
	s.Add("b", 2)
	s.Add("c", 3)
	assert.Equal(t, 0, s.Rank("a"))
	assert.Equal(t, 2, s.Rank("c"))
	assert.Equal(t, 0, s.RevRank("c"))
	assert.Equal(t, -1, s.Rank("missing"))
}
