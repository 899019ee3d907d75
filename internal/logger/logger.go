// Package logger builds the process-wide structured logger. It
// replaces the stdlib log.Printf stub this package started as with
// zap, so the engine and the HTTP layer can attach structured fields
// (test id, request latency, panic stacks) instead of formatting
// strings by hand.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger. debug widens the level to
// include Debug-level records.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests that don't
// care about log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}
