// Package vexlog provides the structured logger used by vex's write path.
// The index writer accepts a *zap.SugaredLogger through its Config struct
// and logs lifecycle events (early segment flush failures, commits,
// consolidation failures) with key-value pairs rather than formatted
// strings, so log output stays greppable and machine-parseable.
package vexlog

import (
	"go.uber.org/zap"
)

// New builds a production-style *zap.SugaredLogger named after service,
// suitable for embedding inside an Engine or Index writer.
func New(service string) *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on sink construction; fall back to a
		// no-op logger rather than panicking an embeddable library.
		logger = zap.NewNop()
	}
	return logger.Named(service).Sugar()
}

// NewDevelopment builds a human-readable *zap.SugaredLogger for tests and
// CLI tools, where colorized, non-JSON output is preferable.
func NewDevelopment(service string) *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Named(service).Sugar()
}

// Noop returns a logger that discards everything, used by tests that don't
// care about log output and by library callers who haven't configured one.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
