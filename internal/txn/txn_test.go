package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRevisions map[string]uint64

func (f fakeRevisions) Revision(key string) uint64 { return f[key] }

func TestWatchSnapshotsAndDetectsChange(t *testing.T) {
	m := NewManager()
	db := fakeRevisions{"k": 1}
	m.Watch(1, db)
	m.Watch(1, db, "k")

	tx := m.Get(1)
	assert.True(t, tx.StillValid(db))

	db["k"] = 2
	assert.False(t, tx.StillValid(db))
}

func TestUnwatchClearsWatches(t *testing.T) {
	m := NewManager()
	db := fakeRevisions{"k": 1}
	m.Watch(1, db, "k")
	m.Unwatch(1)
	db["k"] = 99
	assert.True(t, m.Get(1).StillValid(db))
}

func TestResetPreservesWatches(t *testing.T) {
	m := NewManager()
	db := fakeRevisions{"k": 1}
	m.Watch(1, db, "k")
	tx := m.Get(1)
	tx.InMulti = true
	tx.Queued = append(tx.Queued, nil)

	tx.Reset()
	assert.False(t, tx.InMulti)
	assert.Nil(t, tx.Queued)
	assert.Len(t, tx.Watched, 1)
}

func TestRemoveDropsTransaction(t *testing.T) {
	m := NewManager()
	db := fakeRevisions{}
	m.Watch(1, db, "k")
	m.Remove(1)
	// Get recreates a fresh transaction after removal.
	assert.Empty(t, m.Get(1).Watched)
}
