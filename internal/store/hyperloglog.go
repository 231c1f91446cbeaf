package store

import "kvprotod/internal/hyperloglog"

// PFAdd adds elements to key's HyperLogLog sketch, creating it if
// absent, and returns true iff at least one register changed.
func (db *DB) PFAdd(key string, elements ...[]byte) (bool, error) {
	data, err := db.RawBytes(key)
	if err != nil {
		return false, err
	}
	sk, err := hyperloglog.Unmarshal(data)
	if err != nil {
		return false, err
	}
	updated := false
	for _, e := range elements {
		if sk.Add(e) {
			updated = true
		}
	}
	if err := db.PutRawBytes(key, sk.Marshal()); err != nil {
		return false, err
	}
	return updated, nil
}

// PFCount estimates the cardinality of one sketch, or the union
// cardinality of several, merging them into a scratch sketch.
func (db *DB) PFCount(keys ...string) (int64, error) {
	var merged *hyperloglog.Sketch
	for _, k := range keys {
		data, err := db.RawBytes(k)
		if err != nil {
			return 0, err
		}
		sk, err := hyperloglog.Unmarshal(data)
		if err != nil {
			return 0, err
		}
		if merged == nil {
			merged = sk
			continue
		}
		if err := merged.Merge(sk); err != nil {
			return 0, err
		}
	}
	if merged == nil {
		return 0, nil
	}
	return merged.Count(), nil
}

// PFMerge merges sourceKeys' sketches into destKey, overwriting it.
func (db *DB) PFMerge(destKey string, sourceKeys ...string) error {
	dest := hyperloglog.New(hyperloglog.DefaultPrecision)
	for _, k := range sourceKeys {
		data, err := db.RawBytes(k)
		if err != nil {
			return err
		}
		sk, err := hyperloglog.Unmarshal(data)
		if err != nil {
			return err
		}
		if err := dest.Merge(sk); err != nil {
			return err
		}
	}
	return db.PutRawBytes(destKey, dest.Marshal())
}
