package store

import (
	"container/list"

	"kvprotod/internal/resperr"
)

// dlist is the List type-storage: a doubly-linked list giving O(1)
// push/pop at either end, per spec.md §4.2. Indexed access (LRANGE,
// LINDEX) walks from whichever end is closer, same complexity trade-off
// Redis itself makes for its quicklist encoding.
type dlist struct {
	l *list.List
}

func newDlist() *dlist {
	return &dlist{l: list.New()}
}

func (d *dlist) len() int {
	return d.l.Len()
}

// at returns the element at 0-based index i from the front, or nil if
// out of range. Negative i is not handled here — callers resolve
// negative/clamped indices before calling.
func (d *dlist) at(i int) *list.Element {
	if i < 0 || i >= d.l.Len() {
		return nil
	}
	if i <= d.l.Len()/2 {
		e := d.l.Front()
		for ; i > 0; i-- {
			e = e.Next()
		}
		return e
	}
	e := d.l.Back()
	for j := d.l.Len() - 1; j > i; j-- {
		e = e.Prev()
	}
	return e
}

// LPush prepends values (each value in turn becomes the new head, so
// the last argument ends up closest to the front — matching Redis'
// LPUSH semantics) and returns the new length.
func (db *DB) LPush(key string, values ...[]byte) (int, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return 0, err
	}
	d, ok := db.lists[key]
	if !ok {
		d = newDlist()
		db.lists[key] = d
		db.kinds[key] = KindList
	}
	for _, v := range values {
		d.l.PushFront(v)
	}
	db.touch(key)
	return d.len(), nil
}

// RPush appends values and returns the new length.
func (db *DB) RPush(key string, values ...[]byte) (int, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return 0, err
	}
	d, ok := db.lists[key]
	if !ok {
		d = newDlist()
		db.lists[key] = d
		db.kinds[key] = KindList
	}
	for _, v := range values {
		d.l.PushBack(v)
	}
	db.touch(key)
	return d.len(), nil
}

// LPop removes and returns the head element, or (nil, false) if the key
// is missing or empty. Emptying the list deletes the key (spec.md §3
// lifecycle: "destroyed on ... container-emptying operations").
func (db *DB) LPop(key string) ([]byte, bool, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return nil, false, err
	}
	d, ok := db.lists[key]
	if !ok || d.len() == 0 {
		return nil, false, nil
	}
	e := d.l.Front()
	v := e.Value.([]byte)
	d.l.Remove(e)
	if d.len() == 0 {
		db.deleteAll(key)
	}
	db.touch(key)
	return v, true, nil
}

// RPop removes and returns the tail element.
func (db *DB) RPop(key string) ([]byte, bool, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return nil, false, err
	}
	d, ok := db.lists[key]
	if !ok || d.len() == 0 {
		return nil, false, nil
	}
	e := d.l.Back()
	v := e.Value.([]byte)
	d.l.Remove(e)
	if d.len() == 0 {
		db.deleteAll(key)
	}
	db.touch(key)
	return v, true, nil
}

// LLen returns the list's length, 0 if absent.
func (db *DB) LLen(key string) (int, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return 0, err
	}
	d, ok := db.lists[key]
	if !ok {
		return 0, nil
	}
	return d.len(), nil
}

// LRange returns elements in [start, stop], resolving negative indices
// relative to the current length, clamping bounds, and returning an
// empty slice when start > stop (spec.md §4.2).
func (db *DB) LRange(key string, start, stop int) ([][]byte, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return nil, err
	}
	d, ok := db.lists[key]
	if !ok {
		return nil, nil
	}
	n := d.len()
	start, stop = resolveRange(start, stop, n)
	if start > stop {
		return nil, nil
	}
	out := make([][]byte, 0, stop-start+1)
	e := d.at(start)
	for i := start; i <= stop && e != nil; i++ {
		out = append(out, e.Value.([]byte))
		e = e.Next()
	}
	return out, nil
}

// LIndex returns the element at index, resolving negative indices.
func (db *DB) LIndex(key string, index int) ([]byte, bool, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return nil, false, err
	}
	d, ok := db.lists[key]
	if !ok {
		return nil, false, nil
	}
	n := d.len()
	if index < 0 {
		index += n
	}
	e := d.at(index)
	if e == nil {
		return nil, false, nil
	}
	return e.Value.([]byte), true, nil
}

// LSet overwrites the element at index.
func (db *DB) LSet(key string, index int, value []byte) error {
	if _, err := db.checkType(key, KindList); err != nil {
		return err
	}
	d, ok := db.lists[key]
	if !ok {
		return resperr.Range("no such key")
	}
	n := d.len()
	if index < 0 {
		index += n
	}
	e := d.at(index)
	if e == nil {
		return resperr.Range("index out of range")
	}
	e.Value = value
	db.touch(key)
	return nil
}

// LRem removes up to count occurrences of value. count > 0 scans head to
// tail, count < 0 scans tail to head, count == 0 removes all occurrences.
// Returns the number removed.
func (db *DB) LRem(key string, count int, value []byte) (int, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return 0, err
	}
	d, ok := db.lists[key]
	if !ok {
		return 0, nil
	}
	removed := 0
	remove := func(e *list.Element) *list.Element {
		next := e.Next()
		d.l.Remove(e)
		removed++
		return next
	}
	limit := count
	if limit < 0 {
		limit = -limit
	}
	if count >= 0 {
		for e := d.l.Front(); e != nil; {
			if bytesEqual(e.Value.([]byte), value) {
				e = remove(e)
				if limit > 0 && removed >= limit {
					break
				}
				continue
			}
			e = e.Next()
		}
	} else {
		for e := d.l.Back(); e != nil; {
			if bytesEqual(e.Value.([]byte), value) {
				prev := e.Prev()
				d.l.Remove(e)
				removed++
				if removed >= limit {
					break
				}
				e = prev
				continue
			}
			e = e.Prev()
		}
	}
	if d.len() == 0 {
		db.deleteAll(key)
	}
	if removed > 0 {
		db.touch(key)
	}
	return removed, nil
}

// LTrim keeps only elements within [start, stop], removing the rest.
func (db *DB) LTrim(key string, start, stop int) error {
	if _, err := db.checkType(key, KindList); err != nil {
		return err
	}
	d, ok := db.lists[key]
	if !ok {
		return nil
	}
	n := d.len()
	start, stop = resolveRange(start, stop, n)
	newList := list.New()
	if start <= stop {
		e := d.at(start)
		for i := start; i <= stop && e != nil; i++ {
			newList.PushBack(e.Value)
			e = e.Next()
		}
	}
	d.l = newList
	if d.len() == 0 {
		db.deleteAll(key)
	}
	db.touch(key)
	return nil
}

// LInsert inserts value before or after the first occurrence of pivot.
// Returns the new length, or -1 if pivot was not found, or 0 if key is
// missing.
func (db *DB) LInsert(key string, before bool, pivot, value []byte) (int, error) {
	if _, err := db.checkType(key, KindList); err != nil {
		return 0, err
	}
	d, ok := db.lists[key]
	if !ok {
		return 0, nil
	}
	for e := d.l.Front(); e != nil; e = e.Next() {
		if bytesEqual(e.Value.([]byte), pivot) {
			if before {
				d.l.InsertBefore(value, e)
			} else {
				d.l.InsertAfter(value, e)
			}
			db.touch(key)
			return d.len(), nil
		}
	}
	return -1, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveRange turns possibly-negative start/stop indices into clamped,
// in-bounds [0, n-1] indices per spec.md §4.2's LRANGE contract.
func resolveRange(start, stop, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}
