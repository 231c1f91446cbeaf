// Package config loads the server's configuration from flags, a YAML
// file, and the environment via spf13/viper, and exposes it to the rest
// of the program only as a plain Snapshot struct — the core never
// imports viper or cobra directly, keeping "argument/flag parsing" an
// external collaborator the way spec.md §1 scopes it. Grounded in
// armandParser-gofast-server's cmd.go/config.go (cobra flags bound to
// viper keys, viper.SetDefault per field, viper.Unmarshal into a plain
// struct) and extended with fsnotify-backed hot reload via viper's
// WatchConfig, per the DOMAIN STACK's fsnotify entry.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Snapshot is the immutable configuration value handed to every other
// package. Nothing outside this package ever sees a *viper.Viper.
type Snapshot struct {
	Host string
	Port int

	ReadBufferSize  int
	WriteBufferSize int
	MaxConnections  int
	ReadTimeout     time.Duration

	LogLevel string
	LogJSON  bool

	MaxMemoryBytes int64

	DataDir string

	RDBEnabled     bool
	RDBFilename    string
	RDBCompress    bool
	SaveSeconds    int
	SaveMinChanges int

	AOFEnabled         bool
	AOFFilename        string
	AOFSyncEverySecond bool
	AOFRewriteMinBytes int64

	ExpirationSweepInterval time.Duration
}

// Default returns the built-in defaults, the same values gofast-server's
// DefaultConfig seeds before viper layers file/env/flag overrides on top.
func Default() Snapshot {
	return Snapshot{
		Host:            "0.0.0.0",
		Port:            6379,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxConnections:  10000,
		ReadTimeout:      30 * time.Second,
		LogLevel:        "info",
		LogJSON:         false,
		MaxMemoryBytes:  0,
		DataDir:         "./data",
		RDBEnabled:      true,
		RDBFilename:     "dump.rdb",
		RDBCompress:     false,
		SaveSeconds:     60,
		SaveMinChanges:  100,
		AOFEnabled:         false,
		AOFFilename:        "appendonly.aof",
		AOFSyncEverySecond: true,
		AOFRewriteMinBytes: 64 * 1024 * 1024,
		ExpirationSweepInterval: time.Second,
	}
}

// BindFlags registers every configuration flag onto flags (a cobra
// command's Flags()/PersistentFlags()) and binds each to its viper key,
// mirroring gofast-server's init() flag/viper wiring one field at a time.
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) {
	d := Default()

	flags.String("host", d.Host, "address to bind to")
	flags.Int("port", d.Port, "port to listen on")
	flags.Int("max-connections", d.MaxConnections, "maximum concurrent client connections")
	flags.Duration("read-timeout", d.ReadTimeout, "idle read timeout per connection")
	flags.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	flags.Bool("log-json", d.LogJSON, "emit JSON-formatted logs")
	flags.Int64("max-memory-bytes", d.MaxMemoryBytes, "reject writes once used memory exceeds this many bytes (0 = unbounded)")
	flags.String("data-dir", d.DataDir, "directory for RDB/AOF files")
	flags.Bool("rdb-enabled", d.RDBEnabled, "enable RDB snapshotting")
	flags.String("rdb-filename", d.RDBFilename, "RDB snapshot filename")
	flags.Bool("rdb-compress", d.RDBCompress, "zstd-compress RDB snapshot bodies")
	flags.Int("save-seconds", d.SaveSeconds, "minimum seconds between automatic saves")
	flags.Int("save-min-changes", d.SaveMinChanges, "minimum writes between automatic saves")
	flags.Bool("aof-enabled", d.AOFEnabled, "enable append-only file persistence")
	flags.String("aof-filename", d.AOFFilename, "AOF filename")
	flags.Bool("aof-sync-every-second", d.AOFSyncEverySecond, "fsync the AOF once per second instead of on every write")
	flags.Int64("aof-rewrite-min-bytes", d.AOFRewriteMinBytes, "AOF size, in bytes, that triggers a background rewrite")
	flags.Duration("expiration-sweep-interval", d.ExpirationSweepInterval, "active expiration sweep cadence")

	for _, name := range []string{
		"host", "port", "max-connections", "read-timeout", "log-level", "log-json",
		"max-memory-bytes", "data-dir", "rdb-enabled", "rdb-filename", "rdb-compress",
		"save-seconds", "save-min-changes", "aof-enabled", "aof-filename",
		"aof-sync-every-second", "aof-rewrite-min-bytes", "expiration-sweep-interval",
	} {
		v.BindPFlag(name, flags.Lookup(name))
	}
}

// Load reads the configuration file (if any), environment variables
// (KVPROTOD_* prefix), and flags already bound onto v, and unmarshals
// the result into a Snapshot.
func Load(v *viper.Viper, configFile string) (Snapshot, error) {
	v.SetEnvPrefix("KVPROTOD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("kvprotod")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kvprotod/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Snapshot{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	return snapshotFrom(v)
}

// Watch arranges for onChange to be called with a freshly reloaded
// Snapshot whenever the config file on disk changes, via viper's
// fsnotify-backed WatchConfig. A decode failure during reload is
// reported to onErr and the previous snapshot keeps serving.
func Watch(v *viper.Viper, onChange func(Snapshot), onErr func(error)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		snap, err := snapshotFrom(v)
		if err != nil {
			onErr(err)
			return
		}
		onChange(snap)
	})
	v.WatchConfig()
}

func snapshotFrom(v *viper.Viper) (Snapshot, error) {
	snap := Default()
	snap.Host = v.GetString("host")
	snap.Port = v.GetInt("port")
	snap.MaxConnections = v.GetInt("max-connections")
	snap.ReadTimeout = v.GetDuration("read-timeout")
	snap.LogLevel = v.GetString("log-level")
	snap.LogJSON = v.GetBool("log-json")
	snap.MaxMemoryBytes = v.GetInt64("max-memory-bytes")
	snap.DataDir = v.GetString("data-dir")
	snap.RDBEnabled = v.GetBool("rdb-enabled")
	snap.RDBFilename = v.GetString("rdb-filename")
	snap.RDBCompress = v.GetBool("rdb-compress")
	snap.SaveSeconds = v.GetInt("save-seconds")
	snap.SaveMinChanges = v.GetInt("save-min-changes")
	snap.AOFEnabled = v.GetBool("aof-enabled")
	snap.AOFFilename = v.GetString("aof-filename")
	snap.AOFSyncEverySecond = v.GetBool("aof-sync-every-second")
	snap.AOFRewriteMinBytes = v.GetInt64("aof-rewrite-min-bytes")
	snap.ExpirationSweepInterval = v.GetDuration("expiration-sweep-interval")

	if snap.Port < 1 || snap.Port > 65535 {
		return Snapshot{}, fmt.Errorf("config: invalid port %d", snap.Port)
	}
	return snap, nil
}
