package store

import "kvprotod/internal/bitmap"

// SetBit sets or clears the bit at offset within key's string payload,
// creating the key if absent, and returns the bit's previous value.
func (db *DB) SetBit(key string, offset int64, value int) (int, error) {
	data, err := db.RawBytes(key)
	if err != nil {
		return 0, err
	}
	updated, old, err := bitmap.SetBit(data, offset, value)
	if err != nil {
		return 0, err
	}
	if err := db.PutRawBytes(key, updated); err != nil {
		return 0, err
	}
	return old, nil
}

// GetBit returns the bit at offset within key's string payload.
func (db *DB) GetBit(key string, offset int64) (int, error) {
	data, err := db.RawBytes(key)
	if err != nil {
		return 0, err
	}
	return bitmap.GetBit(data, offset)
}

// BitCount returns the number of set bits in key's payload within the
// optional byte range.
func (db *DB) BitCount(key string, start, end *int64) (int64, error) {
	data, err := db.RawBytes(key)
	if err != nil {
		return 0, err
	}
	return bitmap.Count(data, start, end), nil
}

// BitPos returns the offset of the first bit equal to want within key's
// payload, within the optional byte range.
func (db *DB) BitPos(key string, want int, start, end *int64) (int64, error) {
	data, err := db.RawBytes(key)
	if err != nil {
		return 0, err
	}
	return bitmap.Pos(data, want, start, end), nil
}

// BitOp applies op (AND/OR/XOR over all srcKeys, or NOT over exactly one)
// and stores the result at destKey, returning its length.
func (db *DB) BitOp(op string, destKey string, srcKeys ...string) (int64, error) {
	srcs := make([][]byte, len(srcKeys))
	for i, k := range srcKeys {
		data, err := db.RawBytes(k)
		if err != nil {
			return 0, err
		}
		srcs[i] = data
	}
	var result []byte
	switch op {
	case "AND":
		result = bitmap.And(srcs)
	case "OR":
		result = bitmap.Or(srcs)
	case "XOR":
		result = bitmap.Xor(srcs)
	case "NOT":
		result = bitmap.Not(srcs[0])
	default:
		return 0, errInvalidBitOp
	}
	if err := db.PutRawBytes(destKey, result); err != nil {
		return 0, err
	}
	return int64(len(result)), nil
}
