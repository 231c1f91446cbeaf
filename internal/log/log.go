// Package log provides the server's structured logger, a thin wrapper
// around zap configured the way operators expect a long-running daemon
// to log: console-friendly in development, JSON in production.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the sugared zap logger used throughout the server.
type Logger = zap.SugaredLogger

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// JSON selects JSON encoding; false uses the human-readable console encoder.
	JSON bool
}

// New builds a Logger from Config. A zero Config yields an info-level
// console logger suitable for interactive use.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, err
		}
	}

	zcfg := zap.NewProductionConfig()
	if !cfg.JSON {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	base, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return base.Sugar(), nil
}

// Nop returns a logger that discards everything, useful in tests.
func Nop() *Logger {
	return zap.NewNop().Sugar()
}
