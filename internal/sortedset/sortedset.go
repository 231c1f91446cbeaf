// Package sortedset implements the SortedSet type storage from spec.md
// §3/§4.2. The teacher (faizanhussain2310-GoRedis) computes every range
// by collecting all members into a slice and sorting it on each call —
// O(N log N) per range, which spec.md §9's design notes flag explicitly:
// "a faithful implementation should use a skip list or order-statistics
// tree to achieve O(log N) updates and O(log N + M) range queries."
//
// This implementation keeps members ordered by (score, member) in a
// github.com/tidwall/btree B-tree (grounded in AKJUS-bsc-erigon's use of
// the same library), giving O(log N) ZADD/ZREM and O(log N + M) ordered
// scans for ZRANGEBYSCORE. Rank-addressed operations (ZRANGE/ZREVRANGE by
// index, ZRANK) still walk the tree from one end in O(rank) — tidwall's
// B-tree does not expose augmented subtree sizes for O(log N) select —
// but this remains asymptotically no worse than the teacher's approach
// and avoids the repeated full sort on every call.
package sortedset

import (
	"math"

	"github.com/tidwall/btree"
)

// Entry is one (member, score) pair.
type Entry struct {
	Member string
	Score  float64
}

func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// Set is a sorted set keyed by member, ordered by (score, member).
type Set struct {
	byScore *btree.BTreeG[Entry]
	byMember map[string]float64
}

// New creates an empty sorted set.
func New() *Set {
	return &Set{
		byScore:  btree.NewBTreeG(less),
		byMember: make(map[string]float64),
	}
}

// Add inserts member with score, or updates its score if already present.
// Returns true iff member was newly inserted (ZADD's return value counts
// new members only, per spec.md §4.2).
func (s *Set) Add(member string, score float64) bool {
	if old, exists := s.byMember[member]; exists {
		if old == score {
			return false
		}
		s.byScore.Delete(Entry{Member: member, Score: old})
		s.byScore.Set(Entry{Member: member, Score: score})
		s.byMember[member] = score
		return false
	}
	s.byScore.Set(Entry{Member: member, Score: score})
	s.byMember[member] = score
	return true
}

// IncrBy increments member's score (inserting it with the increment as
// its initial score if absent, per spec.md §4.2) and returns the new score.
func (s *Set) IncrBy(member string, delta float64) float64 {
	newScore := delta
	if old, exists := s.byMember[member]; exists {
		newScore = old + delta
		s.byScore.Delete(Entry{Member: member, Score: old})
	}
	s.byScore.Set(Entry{Member: member, Score: newScore})
	s.byMember[member] = newScore
	return newScore
}

// Remove deletes member. Returns true iff it was present.
func (s *Set) Remove(member string) bool {
	score, exists := s.byMember[member]
	if !exists {
		return false
	}
	s.byScore.Delete(Entry{Member: member, Score: score})
	delete(s.byMember, member)
	return true
}

// Score returns member's score.
func (s *Set) Score(member string) (float64, bool) {
	sc, ok := s.byMember[member]
	return sc, ok
}

// Card returns the member count.
func (s *Set) Card() int {
	return len(s.byMember)
}

// RangeByRank returns entries in ascending score order for the inclusive
// rank interval [start, stop], after clamping/negative-index resolution
// has already been done by the caller (callers pass already-resolved,
// in-bounds indices; an empty slice results when start > stop).
func (s *Set) RangeByRank(start, stop int) []Entry {
	if start > stop {
		return nil
	}
	out := make([]Entry, 0, stop-start+1)
	i := 0
	s.byScore.Scan(func(e Entry) bool {
		if i > stop {
			return false
		}
		if i >= start {
			out = append(out, e)
		}
		i++
		return true
	})
	return out
}

// RangeByRankDesc is RangeByRank in descending score order (ZREVRANGE).
func (s *Set) RangeByRankDesc(start, stop int) []Entry {
	if start > stop {
		return nil
	}
	out := make([]Entry, 0, stop-start+1)
	i := 0
	s.byScore.Reverse(func(e Entry) bool {
		if i > stop {
			return false
		}
		if i >= start {
			out = append(out, e)
		}
		i++
		return true
	})
	return out
}

// RangeByScore returns entries with min <= score <= max (or exclusive
// bounds per minExcl/maxExcl), ascending.
func (s *Set) RangeByScore(min, max float64, minExcl, maxExcl bool) []Entry {
	var out []Entry
	pivot := Entry{Score: min, Member: ""}
	s.byScore.Ascend(pivot, func(e Entry) bool {
		if e.Score > max || (maxExcl && e.Score == max) {
			return false
		}
		if e.Score < min || (minExcl && e.Score == min) {
			return true
		}
		out = append(out, e)
		return true
	})
	return out
}

// Count returns the number of members with min <= score <= max.
func (s *Set) Count(min, max float64, minExcl, maxExcl bool) int {
	return len(s.RangeByScore(min, max, minExcl, maxExcl))
}

// Rank returns member's 0-based ascending rank, or -1 if absent.
func (s *Set) Rank(member string) int {
	score, ok := s.byMember[member]
	if !ok {
		return -1
	}
	rank := -1
	i := 0
	s.byScore.Scan(func(e Entry) bool {
		if e.Member == member && e.Score == score {
			rank = i
			return false
		}
		i++
		return true
	})
	return rank
}

// RevRank returns member's 0-based descending rank, or -1 if absent.
func (s *Set) RevRank(member string) int {
	r := s.Rank(member)
	if r == -1 {
		return -1
	}
	return s.Card() - 1 - r
}

// All returns every entry in ascending score order (used by RDB/AOF
// serialization and PFMERGE-adjacent bulk reads).
func (s *Set) All() []Entry {
	out := make([]Entry, 0, s.Card())
	s.byScore.Scan(func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// PopMin removes and returns the n lowest-scoring entries.
func (s *Set) PopMin(n int) []Entry {
	var out []Entry
	for i := 0; i < n; i++ {
		var first Entry
		found := false
		s.byScore.Scan(func(e Entry) bool {
			first = e
			found = true
			return false
		})
		if !found {
			break
		}
		s.Remove(first.Member)
		out = append(out, first)
	}
	return out
}

// PopMax removes and returns the n highest-scoring entries.
func (s *Set) PopMax(n int) []Entry {
	var out []Entry
	for i := 0; i < n; i++ {
		var last Entry
		found := false
		s.byScore.Reverse(func(e Entry) bool {
			last = e
			found = true
			return false
		})
		if !found {
			break
		}
		s.Remove(last.Member)
		out = append(out, last)
	}
	return out
}

// RemoveRangeByScore removes members with min <= score <= max and
// returns how many were removed.
func (s *Set) RemoveRangeByScore(min, max float64, minExcl, maxExcl bool) int {
	victims := s.RangeByScore(min, max, minExcl, maxExcl)
	for _, e := range victims {
		s.Remove(e.Member)
	}
	return len(victims)
}

// RemoveRangeByRank removes and returns the count of members in rank
// interval [start, stop] (already clamped/resolved by caller).
func (s *Set) RemoveRangeByRank(start, stop int) int {
	victims := s.RangeByRank(start, stop)
	for _, e := range victims {
		s.Remove(e.Member)
	}
	return len(victims)
}

// NegInf and PosInf are convenience bounds for unbounded range queries.
var (
	NegInf = math.Inf(-1)
	PosInf = math.Inf(1)
)
