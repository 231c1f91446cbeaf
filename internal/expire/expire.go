// Package expire implements the per-key TTL index described in
// spec.md §4.4: a mapping key -> absolute deadline, consulted lazily on
// every read and swept actively on a timer. It is the generalization of
// the teacher's Store.dataWithExpiry map[string]time.Time into a
// standalone component owned by the top-level keyspace.
package expire

import "time"

// Index tracks absolute expiration deadlines for keys. It holds no
// reference to the underlying value storage — callers are responsible
// for deleting the key's data when Index reports it expired.
type Index struct {
	deadlines map[string]time.Time
}

// New creates an empty expiration index.
func New() *Index {
	return &Index{deadlines: make(map[string]time.Time)}
}

// Set installs or replaces key's absolute deadline.
func (idx *Index) Set(key string, deadline time.Time) {
	idx.deadlines[key] = deadline
}

// Clear removes key's deadline, if any (the key no longer expires).
func (idx *Index) Clear(key string) {
	delete(idx.deadlines, key)
}

// Deadline returns key's deadline and whether one is set.
func (idx *Index) Deadline(key string) (time.Time, bool) {
	d, ok := idx.deadlines[key]
	return d, ok
}

// Expired reports whether key has a deadline that has passed as of now.
// A key with no deadline is never expired.
func (idx *Index) Expired(key string, now time.Time) bool {
	d, ok := idx.deadlines[key]
	return ok && !now.Before(d)
}

// TTLSeconds implements the TTL command's tri-state return (spec.md
// §4.4) as far as the index can tell: -1 for a key with no deadline,
// else seconds remaining floored to zero. The index cannot tell a
// missing key from one without a deadline, so reporting -2 for a
// missing key is the caller's job.
func (idx *Index) TTLSeconds(key string, now time.Time) int64 {
	d, ok := idx.deadlines[key]
	if !ok {
		return -1
	}
	remaining := d.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return int64(remaining.Seconds())
}

// Sweep scans every tracked deadline and invokes onExpired for each key
// whose deadline has passed as of now, then removes it from the index.
// This backs the active-sweep mechanism of spec.md §4.4; the caller
// (store.DB) is responsible for deleting the key's value and logging a
// synthetic DEL to the persistence coordinator.
func (idx *Index) Sweep(now time.Time, onExpired func(key string)) {
	for key, d := range idx.deadlines {
		if !now.Before(d) {
			delete(idx.deadlines, key)
			onExpired(key)
		}
	}
}

// Len returns the number of keys currently tracked with a deadline.
func (idx *Index) Len() int {
	return len(idx.deadlines)
}

// All returns a snapshot of every tracked (key, deadline) pair, used by
// the RDB writer's expiration-map section.
func (idx *Index) All() map[string]time.Time {
	out := make(map[string]time.Time, len(idx.deadlines))
	for k, v := range idx.deadlines {
		out[k] = v
	}
	return out
}
