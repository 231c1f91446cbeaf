package store

import "kvprotod/internal/sortedset"

// ZAdd adds/updates member's score in key's sorted set, creating it if
// absent. Returns the count of newly-inserted members (not updated
// ones), per spec.md §4.2.
func (db *DB) ZAdd(key string, pairs map[string]float64) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		z = sortedset.New()
		db.zsets[key] = z
		db.kinds[key] = KindSortedSet
	}
	added := 0
	for member, score := range pairs {
		if z.Add(member, score) {
			added++
		}
	}
	db.touch(key)
	return added, nil
}

// ZRem removes members from key's sorted set. Emptying it deletes the key.
func (db *DB) ZRem(key string, members ...string) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, nil
	}
	removed := 0
	for _, m := range members {
		if z.Remove(m) {
			removed++
		}
	}
	if z.Card() == 0 {
		db.deleteAll(key)
	}
	if removed > 0 {
		db.touch(key)
	}
	return removed, nil
}

// ZCard returns key's member count.
func (db *DB) ZCard(key string) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, nil
	}
	return z.Card(), nil
}

// ZScore returns member's score.
func (db *DB) ZScore(key, member string) (float64, bool, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, false, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, false, nil
	}
	sc, ok := z.Score(member)
	return sc, ok, nil
}

// ZIncrBy increments member's score, inserting it with delta as its
// initial score if absent.
func (db *DB) ZIncrBy(key, member string, delta float64) (float64, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		z = sortedset.New()
		db.zsets[key] = z
		db.kinds[key] = KindSortedSet
	}
	newScore := z.IncrBy(member, delta)
	db.touch(key)
	return newScore, nil
}

// ZCount returns the number of members with score in [min, max].
func (db *DB) ZCount(key string, min, max float64, minExcl, maxExcl bool) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, nil
	}
	return z.Count(min, max, minExcl, maxExcl), nil
}

// ZRange returns entries in ascending-score rank order [start, stop].
func (db *DB) ZRange(key string, start, stop int) ([]sortedset.Entry, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return nil, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return nil, nil
	}
	start, stop = resolveRange(start, stop, z.Card())
	return z.RangeByRank(start, stop), nil
}

// ZRevRange returns entries in descending-score rank order [start, stop].
func (db *DB) ZRevRange(key string, start, stop int) ([]sortedset.Entry, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return nil, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return nil, nil
	}
	start, stop = resolveRange(start, stop, z.Card())
	return z.RangeByRankDesc(start, stop), nil
}

// ZRangeByScore returns entries with min <= score <= max, ascending.
func (db *DB) ZRangeByScore(key string, min, max float64, minExcl, maxExcl bool) ([]sortedset.Entry, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return nil, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return nil, nil
	}
	return z.RangeByScore(min, max, minExcl, maxExcl), nil
}

// ZRevRangeByScore returns entries with min <= score <= max, descending.
func (db *DB) ZRevRangeByScore(key string, min, max float64, minExcl, maxExcl bool) ([]sortedset.Entry, error) {
	entries, err := db.ZRangeByScore(key, min, max, minExcl, maxExcl)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ZRank returns member's ascending rank, or -1 if absent.
func (db *DB) ZRank(key, member string) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return -1, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return -1, nil
	}
	return z.Rank(member), nil
}

// ZRevRank returns member's descending rank, or -1 if absent.
func (db *DB) ZRevRank(key, member string) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return -1, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return -1, nil
	}
	return z.RevRank(member), nil
}

// ZPopMin removes and returns the n lowest-scoring entries.
func (db *DB) ZPopMin(key string, n int) ([]sortedset.Entry, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return nil, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return nil, nil
	}
	out := z.PopMin(n)
	if z.Card() == 0 {
		db.deleteAll(key)
	}
	if len(out) > 0 {
		db.touch(key)
	}
	return out, nil
}

// ZPopMax removes and returns the n highest-scoring entries.
func (db *DB) ZPopMax(key string, n int) ([]sortedset.Entry, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return nil, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return nil, nil
	}
	out := z.PopMax(n)
	if z.Card() == 0 {
		db.deleteAll(key)
	}
	if len(out) > 0 {
		db.touch(key)
	}
	return out, nil
}

// ZRemRangeByScore removes members with min <= score <= max.
func (db *DB) ZRemRangeByScore(key string, min, max float64, minExcl, maxExcl bool) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, nil
	}
	n := z.RemoveRangeByScore(min, max, minExcl, maxExcl)
	if z.Card() == 0 {
		db.deleteAll(key)
	}
	if n > 0 {
		db.touch(key)
	}
	return n, nil
}

// ZRemRangeByRank removes members by rank interval [start, stop].
func (db *DB) ZRemRangeByRank(key string, start, stop int) (int, error) {
	if _, err := db.checkType(key, KindSortedSet); err != nil {
		return 0, err
	}
	z, ok := db.zsets[key]
	if !ok {
		return 0, nil
	}
	start, stop = resolveRange(start, stop, z.Card())
	n := z.RemoveRangeByRank(start, stop)
	if z.Card() == 0 {
		db.deleteAll(key)
	}
	if n > 0 {
		db.touch(key)
	}
	return n, nil
}
