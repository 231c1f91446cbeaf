// Command kvprotod is the server binary: it wires configuration,
// logging, storage, pub/sub, transactions, persistence, scheduling, and
// the network layer together and runs until signaled to stop. Grounded
// in armandParser-gofast-server's cmd.go (a cobra root command whose
// RunE loads config, builds the server, and blocks on an OS signal
// channel for graceful shutdown) and the teacher's cmd/server/main.go
// (flag parsing, signal.Notify, cancel-then-Shutdown).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kvprotod/internal/config"
	"kvprotod/internal/dispatch"
	"kvprotod/internal/introspect"
	"kvprotod/internal/log"
	"kvprotod/internal/persist"
	"kvprotod/internal/protocol"
	"kvprotod/internal/pubsub"
	"kvprotod/internal/sched"
	"kvprotod/internal/server"
	"kvprotod/internal/store"
	"kvprotod/internal/txn"
)

var configFile string

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:     "kvprotod",
		Short:   "kvprotod is an in-memory, RESP-speaking key/value store",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(v)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	config.BindFlags(root.PersistentFlags(), v)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(v *viper.Viper) error {
	snap, err := config.Load(v, configFile)
	if err != nil {
		return fmt.Errorf("kvprotod: %w", err)
	}

	logger, err := log.New(log.Config{Level: snap.LogLevel, JSON: snap.LogJSON})
	if err != nil {
		return fmt.Errorf("kvprotod: building logger: %w", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(snap.DataDir, 0o755); err != nil {
		return fmt.Errorf("kvprotod: creating data dir: %w", err)
	}

	db := store.New()
	hub := pubsub.New()
	txMgr := txn.NewManager()

	syncPolicy := persist.SyncAlways
	if snap.AOFSyncEverySecond {
		syncPolicy = persist.SyncEverySecond
	}
	persistCfg := persist.Config{
		Dir:                snap.DataDir,
		RDBEnabled:         snap.RDBEnabled,
		RDBFilename:        snap.RDBFilename,
		RDBCompress:        snap.RDBCompress,
		SaveSeconds:        snap.SaveSeconds,
		SaveMinChanges:     snap.SaveMinChanges,
		AOFEnabled:         snap.AOFEnabled,
		AOFFilename:        snap.AOFFilename,
		AOFSyncPolicy:      syncPolicy,
		AOFRewriteMinBytes: snap.AOFRewriteMinBytes,
	}
	persistCoord, err := persist.New(persistCfg, db)
	if err != nil {
		return fmt.Errorf("kvprotod: starting persistence: %w", err)
	}

	metrics := introspect.New()

	engine := dispatch.New(db, hub, txMgr, logger, 1024)
	engine.MaxMemoryBytes = snap.MaxMemoryBytes
	engine.Persist = persistCoord
	engine.Metrics = metrics

	replayConn := &dispatch.ConnState{ID: -1}
	if err := persistCoord.Recover(func(args [][]byte) {
		engine.Submit(replayConn, &protocol.Command{Args: args})
	}); err != nil {
		return fmt.Errorf("kvprotod: recovering persisted state: %w", err)
	}
	engine.SetWriteHook(persistCoord.OnWrite)

	scheduler, err := sched.New(logger)
	if err != nil {
		return fmt.Errorf("kvprotod: starting scheduler: %w", err)
	}
	if err := scheduler.RegisterExpirationSweep(snap.ExpirationSweepInterval, func() {
		db.Sweep(func(key string) {
			metrics.ExpiredKeys.Inc()
			persistCoord.OnWrite("DEL", [][]byte{[]byte("DEL"), []byte(key)})
		})
	}); err != nil {
		return fmt.Errorf("kvprotod: registering expiration sweep: %w", err)
	}
	if err := scheduler.RegisterAOFSync(time.Second, persistCoord.SyncAOF); err != nil {
		return fmt.Errorf("kvprotod: registering aof sync: %w", err)
	}
	if err := scheduler.RegisterAutoSave(time.Second, persistCoord.AutoSaveEligible, persistCoord.Save); err != nil {
		return fmt.Errorf("kvprotod: registering auto-save: %w", err)
	}
	if err := scheduler.RegisterAOFRewriteCheck(30*time.Second, persistCoord.RewriteEligible, persistCoord.Rewrite); err != nil {
		return fmt.Errorf("kvprotod: registering aof rewrite check: %w", err)
	}
	scheduler.Start()

	config.Watch(v, func(newSnap config.Snapshot) {
		logger.Infow("config reloaded", "max_memory_bytes", newSnap.MaxMemoryBytes)
		engine.MaxMemoryBytes = newSnap.MaxMemoryBytes
	}, func(err error) {
		logger.Warnw("config reload failed", "error", err)
	})

	srv := server.New(server.Config{
		Host:           snap.Host,
		Port:           snap.Port,
		ReadBufferSize: snap.ReadBufferSize,
		MaxConnections: snap.MaxConnections,
		ReadTimeout:    snap.ReadTimeout,
	}, engine, metrics, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Infow("shutdown signal received")
		srv.Shutdown()
		if err := scheduler.Shutdown(); err != nil {
			logger.Warnw("scheduler shutdown failed", "error", err)
		}
		if err := persistCoord.Shutdown(true); err != nil {
			logger.Warnw("final persistence failed", "error", err)
		}
		os.Exit(0)
	}()

	logger.Infow("starting kvprotod", "host", snap.Host, "port", snap.Port)
	return srv.ListenAndServe()
}
