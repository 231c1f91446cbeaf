package persist

import (
	"fmt"
	"sync"
	"time"

	"kvprotod/internal/store"
)

// Config bundles the coordinator's RDB and AOF settings plus the
// auto-save/rewrite-eligibility thresholds of spec.md §4.8.
type Config struct {
	Dir string

	RDBEnabled  bool
	RDBFilename string
	RDBCompress bool
	// SaveSeconds/SaveMinChanges are the auto-save rule's two counters:
	// a background save is eligible once both are exceeded.
	SaveSeconds    int
	SaveMinChanges int

	AOFEnabled         bool
	AOFFilename        string
	AOFSyncPolicy      SyncPolicy
	AOFRewriteMinBytes int64
}

// Coordinator owns RDB/AOF persistence end to end: the write-hook that
// appends to the AOF, the auto-save counters, and background
// save/rewrite eligibility, generalizing the teacher's separate
// internal/rdb + internal/aof packages (which had no shared owner) into
// one component per spec.md §4.8.
type Coordinator struct {
	db  *store.DB
	cfg Config

	rdb    *RDBWriter
	rdbR   *RDBReader
	aof    *AOFWriter
	aofR   *AOFReader

	mu               sync.Mutex
	changesSinceSave int
	lastSave         time.Time
	bgSaveInFlight   bool
	lastSaveErr      error
}

// New builds a Coordinator for db per cfg. AOF, if enabled, is opened
// immediately (append mode); RDB snapshotting is lazy (temp+rename on
// demand).
func New(cfg Config, db *store.DB) (*Coordinator, error) {
	c := &Coordinator{db: db, cfg: cfg, lastSave: time.Now()}

	if cfg.RDBEnabled {
		rdbCfg := RDBConfig{Dir: cfg.Dir, Filename: cfg.RDBFilename, Compress: cfg.RDBCompress}
		c.rdb = NewRDBWriter(rdbCfg)
		c.rdbR = NewRDBReader(rdbCfg)
	}
	if cfg.AOFEnabled {
		aofCfg := AOFConfig{Dir: cfg.Dir, Filename: cfg.AOFFilename, SyncPolicy: cfg.AOFSyncPolicy}
		w, err := NewAOFWriter(aofCfg)
		if err != nil {
			return nil, err
		}
		c.aof = w
		c.aofR = NewAOFReader(aofCfg)
	}
	return c, nil
}

// Recover implements spec.md §4.8's startup rule: replay the AOF if
// enabled and present (skipping RDB entirely), otherwise load the RDB
// snapshot if present. replay is invoked once per recovered AOF command,
// in a mode that must not re-log to the AOF itself (the caller's
// responsibility — typically the dispatcher's Engine run with its write
// hook unset until Recover returns).
func (c *Coordinator) Recover(replay func(args [][]byte)) error {
	if c.cfg.AOFEnabled && c.aofR.Exists() {
		commands, err := c.aofR.LoadAll()
		if err != nil {
			return fmt.Errorf("persist: aof replay failed: %w", err)
		}
		for _, args := range commands {
			replay(args)
		}
		return nil
	}
	if c.cfg.RDBEnabled && c.rdbR.Exists() {
		if err := c.rdbR.Restore(c.db); err != nil {
			return fmt.Errorf("persist: rdb load failed: %w", err)
		}
	}
	return nil
}

// OnWrite is the dispatcher's AOF-append hook (Engine.SetWriteHook):
// called after every successfully-executed write command.
func (c *Coordinator) OnWrite(name string, args [][]byte) {
	if c.cfg.AOFEnabled {
		if err := c.aof.Append(args); err != nil {
			// An AOF append failure is survived: it is recorded as the
			// last error, which INFO reports, and is not logged.
			c.mu.Lock()
			c.lastSaveErr = err
			c.mu.Unlock()
		}
	}
	c.mu.Lock()
	c.changesSinceSave++
	c.mu.Unlock()
}

// AutoSaveEligible reports whether both auto-save counters (spec.md
// §4.8) have been exceeded, making a background save due.
func (c *Coordinator) AutoSaveEligible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cfg.RDBEnabled || c.bgSaveInFlight {
		return false
	}
	enoughChanges := c.changesSinceSave >= c.cfg.SaveMinChanges
	enoughTime := time.Since(c.lastSave) >= time.Duration(c.cfg.SaveSeconds)*time.Second
	return enoughChanges && enoughTime
}

// Save performs a synchronous RDB snapshot (SAVE).
func (c *Coordinator) Save() error {
	if !c.cfg.RDBEnabled {
		return fmt.Errorf("persist: RDB not enabled")
	}
	err := c.rdb.Save(c.db)
	c.mu.Lock()
	if err == nil {
		c.changesSinceSave = 0
		c.lastSave = time.Now()
	}
	c.lastSaveErr = err
	c.mu.Unlock()
	return err
}

// BGSave runs Save on a background goroutine (BGSAVE), refusing to
// start a second one while one is already in flight, per spec.md §4.8
// ("at most one is in flight").
func (c *Coordinator) BGSave() error {
	c.mu.Lock()
	if c.bgSaveInFlight {
		c.mu.Unlock()
		return fmt.Errorf("persist: background save already in progress")
	}
	c.bgSaveInFlight = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.bgSaveInFlight = false
			c.mu.Unlock()
		}()
		c.Save()
	}()
	return nil
}

// LastSave returns the timestamp of the most recently completed save,
// for the LASTSAVE command.
func (c *Coordinator) LastSave() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSave
}

// LastError returns the most recent persistence error, if any, for
// INFO reporting (spec.md §4.10: "background saves leave an error
// status recorded for INFO").
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaveErr
}

// RewriteEligible reports whether the AOF has grown past the
// configured rewrite threshold.
func (c *Coordinator) RewriteEligible() bool {
	if !c.cfg.AOFEnabled {
		return false
	}
	size, err := c.aof.Size()
	if err != nil {
		return false
	}
	return size >= c.cfg.AOFRewriteMinBytes
}

// Rewrite compacts the AOF to the minimal command sequence that
// reproduces the current keyspace (one write command per live key plus
// an EXPIRE per TTL'd key), per spec.md §4.8.
func (c *Coordinator) Rewrite() error {
	if !c.cfg.AOFEnabled {
		return fmt.Errorf("persist: AOF not enabled")
	}
	return c.aof.Rewrite(func() [][][]byte {
		return snapshotAsCommands(c.db)
	})
}

// SyncAOF forces an AOF flush+fsync, driven by the SyncEverySecond timer.
func (c *Coordinator) SyncAOF() error {
	if !c.cfg.AOFEnabled {
		return nil
	}
	return c.aof.Sync()
}

// Shutdown performs final persistence (unless save is false) and closes
// the AOF, per spec.md §4.9's SHUTDOWN semantics.
func (c *Coordinator) Shutdown(save bool) error {
	if save && c.cfg.RDBEnabled {
		if err := c.Save(); err != nil {
			return err
		}
	}
	if c.cfg.AOFEnabled {
		return c.aof.Close()
	}
	return nil
}

// snapshotAsCommands reproduces the current keyspace as the minimal
// write-command sequence needed to rebuild it, for AOF rewrite.
func snapshotAsCommands(db *store.DB) [][][]byte {
	var out [][][]byte
	for _, key := range db.Keys() {
		kind, ok := db.Kind(key)
		if !ok {
			continue
		}
		switch kind {
		case store.KindString:
			if val, ok, err := db.GetString(key); err == nil && ok {
				out = append(out, [][]byte{[]byte("SET"), []byte(key), val})
			}
		case store.KindHash:
			if h, err := db.HGetAll(key); err == nil {
				args := [][]byte{[]byte("HSET"), []byte(key)}
				for field, val := range h {
					args = append(args, []byte(field), val)
				}
				if len(args) > 2 {
					out = append(out, args)
				}
			}
		case store.KindList:
			if items, err := db.LRange(key, 0, -1); err == nil && len(items) > 0 {
				args := [][]byte{[]byte("RPUSH"), []byte(key)}
				args = append(args, items...)
				out = append(out, args)
			}
		case store.KindSet:
			if members, err := db.SMembers(key); err == nil && len(members) > 0 {
				args := [][]byte{[]byte("SADD"), []byte(key)}
				for _, m := range members {
					args = append(args, []byte(m))
				}
				out = append(out, args)
			}
		case store.KindSortedSet:
			if entries, err := db.ZRange(key, 0, -1); err == nil && len(entries) > 0 {
				args := [][]byte{[]byte("ZADD"), []byte(key)}
				for _, e := range entries {
					args = append(args, []byte(formatScoreArg(e.Score)), []byte(e.Member))
				}
				out = append(out, args)
			}
		}
		if secs := db.TTLSeconds(key); secs >= 0 {
			out = append(out, [][]byte{[]byte("EXPIRE"), []byte(key), []byte(fmt.Sprintf("%d", secs))})
		}
	}
	return out
}

func formatScoreArg(f float64) string {
	return fmt.Sprintf("%g", f)
}
