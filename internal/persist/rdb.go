// Package persist implements the persistence coordinator of spec.md
// §4.8: an RDB point-in-time snapshotter plus an AOF command log, owning
// the auto-save counters and the background save/rewrite eligibility
// checks driven by internal/sched. It generalizes the teacher's
// internal/rdb (snapshot writer/reader) and internal/aof (append-only
// log) under one coordinator.
//
// RDB gains two things the teacher's format lacks: a sorted-set type
// code actually wired up in the writer (the teacher declares TypeZSet
// but its writeKeyToWriter switch never handles it), and a dedicated
// trailing expiration-map section recording every key's absolute
// deadline, rather than folding an OpCodeExpireTimeMS in front of each
// key as the teacher does — spec.md §4.8 asks for "an expiration-map
// section giving absolute deadlines" as a first-class structure, not an
// inline per-key opcode.
package persist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc64"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"

	"kvprotod/internal/store"
)

// RDB file format constants, generalized from the teacher's internal/rdb.
const (
	rdbMagic   = "REDIS"
	rdbVersion = 11 // bumped from the teacher's 9: adds ZSet payloads + expiration-map section

	opEOF        = 0xFF
	opSelectDB   = 0xFE
	opResizeDB   = 0xFB
	opAux        = 0xFA
	opExpireMap  = 0xF9 // introduced for the dedicated expiration-map section
	flagRaw      = 0x00
	flagZstdBody = 0x01

	typeString = 0
	typeList   = 1
	typeSet    = 2
	typeZSet   = 3
	typeHash   = 4
)

// RDBConfig controls snapshot behavior.
type RDBConfig struct {
	// Dir is the directory the snapshot file and its lockfile live in.
	Dir string
	// Filename is the snapshot's base name, e.g. "dump.rdb".
	Filename string
	// Compress wraps the snapshot body in a zstd frame when true.
	Compress bool
}

func (c RDBConfig) path() string { return filepath.Join(c.Dir, c.Filename) }
func (c RDBConfig) lockPath() string {
	return filepath.Join(c.Dir, "."+c.Filename+".lock")
}

// RDBWriter serializes a keyspace snapshot to disk.
type RDBWriter struct {
	cfg RDBConfig
}

// NewRDBWriter creates a writer for cfg.
func NewRDBWriter(cfg RDBConfig) *RDBWriter {
	return &RDBWriter{cfg: cfg}
}

// Save writes the entire non-expired keyspace of db to the configured
// path via temp-file-then-rename, taking an advisory flock around the
// rename so a concurrent external snapshot tool cannot race it.
func (w *RDBWriter) Save(db *store.DB) error {
	tempPath := w.cfg.path() + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("rdb: create temp file: %w", err)
	}

	buffered := bufio.NewWriter(file)
	if _, err := buffered.WriteString(rdbMagic); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if _, err := fmt.Fprintf(buffered, "%04d", rdbVersion); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	flag := byte(flagRaw)
	if w.cfg.Compress {
		flag = flagZstdBody
	}
	if err := buffered.WriteByte(flag); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}

	var bodyCloser io.Closer
	var body io.Writer = buffered
	if w.cfg.Compress {
		enc, err := zstd.NewWriter(buffered)
		if err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("rdb: zstd writer: %w", err)
		}
		body = enc
		bodyCloser = enc
	}

	table := crc64.MakeTable(crc64.ECMA)
	hasher := crc64.New(table)
	hashed := io.MultiWriter(body, hasher)

	if err := writeHeaderAux(hashed); err != nil {
		closeBody(bodyCloser, file, tempPath)
		return err
	}

	hashed.Write([]byte{opSelectDB, 0})

	keys := db.Keys()
	hashed.Write([]byte{opResizeDB})
	writeLength(hashed, len(keys))

	expiring := make(map[string]time.Time)
	for _, key := range keys {
		kind, ok := db.Kind(key)
		if !ok {
			continue
		}
		if err := writeEntry(hashed, db, key, kind); err != nil {
			closeBody(bodyCloser, file, tempPath)
			return err
		}
		if secs := db.TTLSeconds(key); secs >= 0 {
			expiring[key] = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}

	hashed.Write([]byte{opExpireMap})
	writeLength(hashed, len(expiring))
	for key, deadline := range expiring {
		writeString(hashed, key)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(deadline.UnixMilli()))
		hashed.Write(buf[:])
	}

	hashed.Write([]byte{opEOF})

	checksum := hasher.Sum64()
	var sumBuf [8]byte
	binary.LittleEndian.PutUint64(sumBuf[:], checksum)
	if _, err := body.Write(sumBuf[:]); err != nil {
		closeBody(bodyCloser, file, tempPath)
		return err
	}

	if bodyCloser != nil {
		if err := bodyCloser.Close(); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("rdb: close zstd writer: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("rdb: flush: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("rdb: sync: %w", err)
	}
	file.Close()

	lock := flock.New(w.cfg.lockPath())
	if err := lock.Lock(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rdb: acquire rename lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Rename(tempPath, w.cfg.path()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rdb: rename into place: %w", err)
	}
	return nil
}

func closeBody(c io.Closer, file *os.File, tempPath string) {
	if c != nil {
		c.Close()
	}
	file.Close()
	os.Remove(tempPath)
}

func writeHeaderAux(w io.Writer) error {
	pairs := [][2]string{
		{"kvprotod-ver", "1.0.0"},
		{"ctime", fmt.Sprintf("%d", time.Now().Unix())},
	}
	for _, p := range pairs {
		if _, err := w.Write([]byte{opAux}); err != nil {
			return err
		}
		writeString(w, p[0])
		writeString(w, p[1])
	}
	return nil
}

func writeEntry(w io.Writer, db *store.DB, key string, kind store.Kind) error {
	switch kind {
	case store.KindString:
		val, ok, err := db.GetString(key)
		if err != nil || !ok {
			return err
		}
		w.Write([]byte{typeString})
		writeString(w, key)
		writeBytes(w, val)

	case store.KindHash:
		h, err := db.HGetAll(key)
		if err != nil {
			return err
		}
		w.Write([]byte{typeHash})
		writeString(w, key)
		writeLength(w, len(h))
		for field, val := range h {
			writeString(w, field)
			writeBytes(w, val)
		}

	case store.KindList:
		items, err := db.LRange(key, 0, -1)
		if err != nil {
			return err
		}
		w.Write([]byte{typeList})
		writeString(w, key)
		writeLength(w, len(items))
		for _, item := range items {
			writeBytes(w, item)
		}

	case store.KindSet:
		members, err := db.SMembers(key)
		if err != nil {
			return err
		}
		w.Write([]byte{typeSet})
		writeString(w, key)
		writeLength(w, len(members))
		for _, m := range members {
			writeString(w, m)
		}

	case store.KindSortedSet:
		entries, err := db.ZRange(key, 0, -1)
		if err != nil {
			return err
		}
		w.Write([]byte{typeZSet})
		writeString(w, key)
		writeLength(w, len(entries))
		for _, e := range entries {
			writeString(w, e.Member)
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e.Score))
			w.Write(buf[:])
		}
	}
	return nil
}

func writeString(w io.Writer, s string) { writeBytes(w, []byte(s)) }

func writeBytes(w io.Writer, b []byte) {
	writeLength(w, len(b))
	w.Write(b)
}

// writeLength encodes a length using the same 6/14/32-bit variable
// scheme as the teacher's internal/rdb.Writer.writeLengthToWriter.
func writeLength(w io.Writer, n int) {
	switch {
	case n < 64:
		w.Write([]byte{byte(n)})
	case n < 16384:
		w.Write([]byte{byte(0x40 | (n >> 8)), byte(n & 0xFF)})
	default:
		w.Write([]byte{0x80})
		binary.Write(w, binary.BigEndian, uint32(n))
	}
}

// RDBReader loads a snapshot written by RDBWriter.
type RDBReader struct {
	cfg RDBConfig
}

// NewRDBReader creates a reader for cfg.
func NewRDBReader(cfg RDBConfig) *RDBReader {
	return &RDBReader{cfg: cfg}
}

// Exists reports whether the snapshot file is present.
func (r *RDBReader) Exists() bool {
	_, err := os.Stat(r.cfg.path())
	return err == nil
}

// zsetMember is one restored sorted-set member/score pair.
type zsetMember struct {
	member string
	score  float64
}

// loadedKey is one fully-decoded RDB entry awaiting restoration into a store.DB.
type loadedKey struct {
	key      string
	kind     byte
	str      []byte
	list     [][]byte
	hash     map[string][]byte
	set      []string
	zset     []zsetMember
	deadline *time.Time
}

// Load parses the snapshot file, verifying its checksum, and returns the
// decoded entries plus their absolute expiration deadlines.
func (r *RDBReader) Load() ([]loadedKey, error) {
	file, err := os.Open(r.cfg.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rdb: open: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	magic := make([]byte, 5)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("rdb: read magic: %w", err)
	}
	if string(magic) != rdbMagic {
		return nil, fmt.Errorf("rdb: bad magic string")
	}
	version := make([]byte, 4)
	if _, err := io.ReadFull(br, version); err != nil {
		return nil, fmt.Errorf("rdb: read version: %w", err)
	}
	flag, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("rdb: read flag: %w", err)
	}

	var body io.Reader = br
	var dec *zstd.Decoder
	if flag == flagZstdBody {
		dec, err = zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("rdb: zstd reader: %w", err)
		}
		defer dec.Close()
		body = dec
	}

	table := crc64.MakeTable(crc64.ECMA)
	hasher := crc64.New(table)
	bufBody := bufio.NewReader(body)

	entries := make(map[string]*loadedKey)
	var order []string

	for {
		typeByte, err := bufBody.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("rdb: read type byte: %w", err)
		}
		hasher.Write([]byte{typeByte})

		switch typeByte {
		case opAux:
			readBytesHashed(bufBody, hasher)
			readBytesHashed(bufBody, hasher)

		case opSelectDB:
			b, _ := bufBody.ReadByte()
			hasher.Write([]byte{b})

		case opResizeDB:
			readLengthHashed(bufBody, hasher)

		case opExpireMap:
			n := readLengthHashed(bufBody, hasher)
			for i := 0; i < n; i++ {
				key := string(readBytesHashed(bufBody, hasher))
				buf := make([]byte, 8)
				io.ReadFull(bufBody, buf)
				hasher.Write(buf)
				ms := binary.LittleEndian.Uint64(buf)
				t := time.UnixMilli(int64(ms))
				if lk, ok := entries[key]; ok {
					lk.deadline = &t
				}
			}

		case opEOF:
			sumBuf := make([]byte, 8)
			if _, err := io.ReadFull(bufBody, sumBuf); err != nil {
				return nil, fmt.Errorf("rdb: read checksum: %w", err)
			}
			stored := binary.LittleEndian.Uint64(sumBuf)
			if got := hasher.Sum64(); got != stored {
				return nil, fmt.Errorf("rdb: checksum mismatch: stored=%d computed=%d", stored, got)
			}
			out := make([]loadedKey, 0, len(order))
			for _, k := range order {
				out = append(out, *entries[k])
			}
			return out, nil

		case typeString:
			key := string(readBytesHashed(bufBody, hasher))
			val := readBytesHashed(bufBody, hasher)
			entries[key] = &loadedKey{key: key, kind: typeString, str: val}
			order = append(order, key)

		case typeList:
			key := string(readBytesHashed(bufBody, hasher))
			n := readLengthHashed(bufBody, hasher)
			items := make([][]byte, n)
			for i := 0; i < n; i++ {
				items[i] = readBytesHashed(bufBody, hasher)
			}
			entries[key] = &loadedKey{key: key, kind: typeList, list: items}
			order = append(order, key)

		case typeHash:
			key := string(readBytesHashed(bufBody, hasher))
			n := readLengthHashed(bufBody, hasher)
			h := make(map[string][]byte, n)
			for i := 0; i < n; i++ {
				field := string(readBytesHashed(bufBody, hasher))
				val := readBytesHashed(bufBody, hasher)
				h[field] = val
			}
			entries[key] = &loadedKey{key: key, kind: typeHash, hash: h}
			order = append(order, key)

		case typeSet:
			key := string(readBytesHashed(bufBody, hasher))
			n := readLengthHashed(bufBody, hasher)
			members := make([]string, n)
			for i := 0; i < n; i++ {
				members[i] = string(readBytesHashed(bufBody, hasher))
			}
			entries[key] = &loadedKey{key: key, kind: typeSet, set: members}
			order = append(order, key)

		case typeZSet:
			key := string(readBytesHashed(bufBody, hasher))
			n := readLengthHashed(bufBody, hasher)
			members := make([]zsetMember, n)
			for i := 0; i < n; i++ {
				member := string(readBytesHashed(bufBody, hasher))
				buf := make([]byte, 8)
				io.ReadFull(bufBody, buf)
				hasher.Write(buf)
				score := math.Float64frombits(binary.LittleEndian.Uint64(buf))
				members[i] = zsetMember{member: member, score: score}
			}
			entries[key] = &loadedKey{key: key, kind: typeZSet, zset: members}
			order = append(order, key)

		default:
			return nil, fmt.Errorf("rdb: unknown type byte %d", typeByte)
		}
	}
}

// readLengthHashed and readBytesHashed mirror the teacher's
// Reader.readLength/readString, which decode a value while separately
// returning the raw bytes consumed so the caller can feed them into the
// running checksum — here the hashing happens inline instead of via a
// second return value.
func readLengthHashed(r *bufio.Reader, h hash.Hash64) int {
	first, err := r.ReadByte()
	if err != nil {
		return 0
	}
	h.Write([]byte{first})
	switch (first & 0xC0) >> 6 {
	case 0:
		return int(first & 0x3F)
	case 1:
		second, _ := r.ReadByte()
		h.Write([]byte{second})
		return int(first&0x3F)<<8 | int(second)
	default:
		buf := make([]byte, 4)
		io.ReadFull(r, buf)
		h.Write(buf)
		return int(binary.BigEndian.Uint32(buf))
	}
}

func readBytesHashed(r *bufio.Reader, h hash.Hash64) []byte {
	n := readLengthHashed(r, h)
	buf := make([]byte, n)
	io.ReadFull(r, buf)
	h.Write(buf)
	return buf
}

// Restore loads the snapshot (if present) and replays it directly into
// db via its normal setters, applying each key's absolute deadline.
// Keys already expired by load time are dropped, per spec.md §4.8's
// replay-fidelity rule.
func (r *RDBReader) Restore(db *store.DB) error {
	entries, err := r.Load()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, e := range entries {
		if e.deadline != nil && !now.Before(*e.deadline) {
			continue
		}
		if err := restoreEntry(db, e); err != nil {
			return err
		}
		if e.deadline != nil {
			db.Expire(e.key, e.deadline.Sub(now))
		}
	}
	return nil
}

func restoreEntry(db *store.DB, e loadedKey) error {
	switch e.kind {
	case typeString:
		return db.SetString(e.key, e.str, nil)
	case typeList:
		_, err := db.RPush(e.key, e.list...)
		return err
	case typeHash:
		for field, val := range e.hash {
			if _, err := db.HSet(e.key, field, val); err != nil {
				return err
			}
		}
	case typeSet:
		_, err := db.SAdd(e.key, e.set...)
		return err
	case typeZSet:
		pairs := make(map[string]float64, len(e.zset))
		for _, m := range e.zset {
			pairs[m.member] = m.score
		}
		_, err := db.ZAdd(e.key, pairs)
		return err
	}
	return nil
}
