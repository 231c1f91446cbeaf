package store

import "time"

// SetString stores value under key as a String, replacing any existing
// string value. A key held by any other type is left untouched and a
// type error is returned (DB.checkType rejects cross-type overwrite at
// the storage layer, per spec.md §3 and §9's resolved Open Question). A nil ttl
// means "no expiration"; a non-nil ttl installs a deadline.
func (db *DB) SetString(key string, value []byte, ttl *time.Duration) error {
	if _, err := db.checkType(key, KindString); err != nil {
		return err
	}
	old, existed := db.strings[key]
	if existed {
		db.addMem(-int64(len(old)))
	}
	db.strings[key] = value
	db.kinds[key] = KindString
	db.addMem(int64(len(value)))
	if ttl != nil {
		db.expire.Set(key, time.Now().Add(*ttl))
	} else {
		db.expire.Clear(key)
	}
	db.touch(key)
	return nil
}

// GetString returns key's string value, (nil, false, nil) if absent.
func (db *DB) GetString(key string) ([]byte, bool, error) {
	if _, err := db.checkType(key, KindString); err != nil {
		return nil, false, err
	}
	v, ok := db.strings[key]
	return v, ok, nil
}

// RawBytes returns the raw byte payload backing key whether it is a
// String or not-yet-created — this is the "bitmap/HLL is a view over a
// string value" hook from spec.md §4.3: both subsystems read/write
// through here instead of owning independent storage.
func (db *DB) RawBytes(key string) ([]byte, error) {
	if _, err := db.checkType(key, KindString); err != nil {
		return nil, err
	}
	return db.strings[key], nil
}

// PutRawBytes installs data as key's string payload, creating the key as
// a String if absent. Used by SETBIT, BITOP and PFADD/PFMERGE, all of
// which spec.md §4.3/§4.5 classify as operating on (and sometimes
// creating) a string-encoded value.
func (db *DB) PutRawBytes(key string, data []byte) error {
	if _, err := db.checkType(key, KindString); err != nil {
		return err
	}
	old := db.strings[key]
	db.addMem(int64(len(data)) - int64(len(old)))
	db.strings[key] = data
	db.kinds[key] = KindString
	db.touch(key)
	return nil
}
