package hyperloglog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountApproximatesCardinality(t *testing.T) {
	sk := New(DefaultPrecision)
	const n = 10000
	for i := 0; i < n; i++ {
		sk.Add([]byte(fmt.Sprintf("element-%d", i)))
	}
	est := sk.Count()
	// HLL at precision 14 has ~0.81% standard error; allow generous slack.
	assert.InDelta(t, n, est, float64(n)*0.05)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	sk := New(DefaultPrecision)
	sk.Add([]byte("a"))
	sk.Add([]byte("b"))

	data := sk.Marshal()
	restored, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, sk.Count(), restored.Count())
}

func TestUnmarshalEmptyYieldsFreshSketch(t *testing.T) {
	sk, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sk.Count())
}

func TestMergeRequiresMatchingPrecision(t *testing.T) {
	a := New(14)
	b := New(10)
	err := a.Merge(b)
	assert.Error(t, err)
}

func TestMergeTakesMaxRegisters(t *testing.T) {
	a := New(DefaultPrecision)
	b := New(DefaultPrecision)
	for i := 0; i < 500; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 500; i++ {
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	require.NoError(t, a.Merge(b))
	assert.InDelta(t, 1000, a.Count(), 1000*0.05)
}
