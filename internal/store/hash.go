package store

// HSet sets field to value within key's hash, creating the hash if
// absent. Returns true iff field was newly created.
func (db *DB) HSet(key, field string, value []byte) (bool, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return false, err
	}
	h, ok := db.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		db.hashes[key] = h
		db.kinds[key] = KindHash
	}
	_, existed := h[field]
	h[field] = value
	db.touch(key)
	return !existed, nil
}

// HGet returns field's value within key's hash.
func (db *DB) HGet(key, field string) ([]byte, bool, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return nil, false, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return nil, false, nil
	}
	v, ok := h[field]
	return v, ok, nil
}

// HDel removes the given fields, returning the number actually removed.
// Emptying the hash deletes the key.
func (db *DB) HDel(key string, fields ...string) (int, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return 0, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return 0, nil
	}
	removed := 0
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			removed++
		}
	}
	if len(h) == 0 {
		db.deleteAll(key)
	}
	if removed > 0 {
		db.touch(key)
	}
	return removed, nil
}

// HGetAll returns every field/value pair in key's hash.
func (db *DB) HGetAll(key string) (map[string][]byte, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return nil, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return nil, nil
	}
	out := make(map[string][]byte, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

// HKeys returns the field names of key's hash.
func (db *DB) HKeys(key string) ([]string, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return nil, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	return out, nil
}

// HVals returns the values of key's hash.
func (db *DB) HVals(key string) ([][]byte, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return nil, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return nil, nil
	}
	out := make([][]byte, 0, len(h))
	for _, v := range h {
		out = append(out, v)
	}
	return out, nil
}

// HLen returns the number of fields in key's hash.
func (db *DB) HLen(key string) (int, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return 0, err
	}
	return len(db.hashes[key]), nil
}

// HExists reports whether field is present in key's hash.
func (db *DB) HExists(key, field string) (bool, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return false, err
	}
	h, ok := db.hashes[key]
	if !ok {
		return false, nil
	}
	_, ok = h[field]
	return ok, nil
}

// HSetNX sets field only if it does not already exist. Returns true iff
// the field was set.
func (db *DB) HSetNX(key, field string, value []byte) (bool, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return false, err
	}
	h, ok := db.hashes[key]
	if !ok {
		h = make(map[string][]byte)
		db.hashes[key] = h
		db.kinds[key] = KindHash
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	db.touch(key)
	return true, nil
}

// HMGet returns the values for multiple fields, with nil for absent ones.
func (db *DB) HMGet(key string, fields ...string) ([][]byte, error) {
	if _, err := db.checkType(key, KindHash); err != nil {
		return nil, err
	}
	h := db.hashes[key]
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if h != nil {
			out[i] = h[f]
		}
	}
	return out, nil
}
