package store

import "math/rand"

// SAdd adds members to key's set, creating it if absent. Returns the
// count of members actually added (duplicates within the set don't
// count).
func (db *DB) SAdd(key string, members ...string) (int, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return 0, err
	}
	s, ok := db.sets[key]
	if !ok {
		s = make(map[string]struct{})
		db.sets[key] = s
		db.kinds[key] = KindSet
	}
	added := 0
	for _, m := range members {
		if _, exists := s[m]; !exists {
			s[m] = struct{}{}
			added++
		}
	}
	if added > 0 {
		db.touch(key)
	}
	return added, nil
}

// SRem removes members from key's set. Emptying the set deletes the key.
func (db *DB) SRem(key string, members ...string) (int, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return 0, err
	}
	s, ok := db.sets[key]
	if !ok {
		return 0, nil
	}
	removed := 0
	for _, m := range members {
		if _, exists := s[m]; exists {
			delete(s, m)
			removed++
		}
	}
	if len(s) == 0 {
		db.deleteAll(key)
	}
	if removed > 0 {
		db.touch(key)
	}
	return removed, nil
}

// SCard returns the cardinality of key's set.
func (db *DB) SCard(key string) (int, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return 0, err
	}
	return len(db.sets[key]), nil
}

// SMembers returns every member of key's set.
func (db *DB) SMembers(key string) ([]string, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return nil, err
	}
	s := db.sets[key]
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	return out, nil
}

// SIsMember reports whether member is in key's set.
func (db *DB) SIsMember(key, member string) (bool, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return false, err
	}
	s := db.sets[key]
	if s == nil {
		return false, nil
	}
	_, ok := s[member]
	return ok, nil
}

// SMove atomically moves member from src's set to dst's set. Returns
// true iff member was present in src.
func (db *DB) SMove(src, dst, member string) (bool, error) {
	if _, err := db.checkType(src, KindSet); err != nil {
		return false, err
	}
	if _, err := db.checkType(dst, KindSet); err != nil {
		return false, err
	}
	srcSet, ok := db.sets[src]
	if !ok {
		return false, nil
	}
	if _, exists := srcSet[member]; !exists {
		return false, nil
	}
	delete(srcSet, member)
	if len(srcSet) == 0 {
		db.deleteAll(src)
	}
	dstSet, ok := db.sets[dst]
	if !ok {
		dstSet = make(map[string]struct{})
		db.sets[dst] = dstSet
		db.kinds[dst] = KindSet
	}
	dstSet[member] = struct{}{}
	db.touch(src)
	db.touch(dst)
	return true, nil
}

// SPop removes and returns up to count uniformly-random members (spec.md
// §4.2: "SPOP/SRANDMEMBER must select uniformly at random").
func (db *DB) SPop(key string, count int) ([]string, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return nil, err
	}
	s, ok := db.sets[key]
	if !ok || len(s) == 0 {
		return nil, nil
	}
	if count > len(s) {
		count = len(s)
	}
	all := make([]string, 0, len(s))
	for m := range s {
		all = append(all, m)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:count]
	for _, m := range picked {
		delete(s, m)
	}
	if len(s) == 0 {
		db.deleteAll(key)
	}
	db.touch(key)
	return picked, nil
}

// SRandMember returns count uniformly-random members without removing
// them. A negative count permits duplicates (sampling with
// replacement); a positive count does not and is clamped to cardinality
// (spec.md §4.2).
func (db *DB) SRandMember(key string, count int) ([]string, error) {
	if _, err := db.checkType(key, KindSet); err != nil {
		return nil, err
	}
	s, ok := db.sets[key]
	if !ok || len(s) == 0 {
		return nil, nil
	}
	all := make([]string, 0, len(s))
	for m := range s {
		all = append(all, m)
	}
	if count < 0 {
		n := -count
		out := make([]string, n)
		for i := range out {
			out[i] = all[rand.Intn(len(all))]
		}
		return out, nil
	}
	if count > len(all) {
		count = len(all)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:count], nil
}

// SInter returns the intersection of the sets at keys.
func (db *DB) SInter(keys ...string) ([]string, error) {
	sets, err := db.collectSets(keys...)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	base := sets[0]
	var out []string
	for m := range base {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[m]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, m)
		}
	}
	return out, nil
}

// SUnion returns the union of the sets at keys.
func (db *DB) SUnion(keys ...string) ([]string, error) {
	sets, err := db.collectSets(keys...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, s := range sets {
		for m := range s {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	return out, nil
}

// SDiff returns the members of the first set not present in any of the
// others.
func (db *DB) SDiff(keys ...string) ([]string, error) {
	sets, err := db.collectSets(keys...)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	var out []string
	for m := range sets[0] {
		found := false
		for _, s := range sets[1:] {
			if _, ok := s[m]; ok {
				found = true
				break
			}
		}
		if !found {
			out = append(out, m)
		}
	}
	return out, nil
}

func (db *DB) collectSets(keys ...string) ([]map[string]struct{}, error) {
	out := make([]map[string]struct{}, 0, len(keys))
	for _, k := range keys {
		if _, err := db.checkType(k, KindSet); err != nil {
			return nil, err
		}
		out = append(out, db.sets[k])
	}
	return out, nil
}
