// Package applog is Engram's ambient logging surface: a small wrapper
// around the standard library logger plus an environment-gated verbose
// mode, in the style of the teacher repo's internal/debug package.
package applog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.Mutex
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	debug   = os.Getenv("ENGRAM_DEBUG") != ""
)

// SetDebug toggles verbose logging. Exposed so the CLI, the daemon's
// log-level config setting and tests can override the ENGRAM_DEBUG
// environment variable.
func SetDebug(v bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = v
}

// Enabled reports whether verbose logging is on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

// Open points the logger at <local-data-dir>/engram/logs/engram.log,
// creating the directory if needed, and returns a closer for the caller to
// defer. If it cannot open the file it falls back to stderr and returns a
// no-op closer — logging failures are never fatal to the daemon.
func Open(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nopCloser{}, fmt.Errorf("applog: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nopCloser{}, fmt.Errorf("applog: open log file: %w", err)
	}
	mu.Lock()
	logger = log.New(f, "", log.LstdFlags)
	mu.Unlock()
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Infof logs an informational message unconditionally.
func Infof(format string, args ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf("INFO "+format, args...)
}

// Warnf logs a warning — used for recoverable conditions such as a
// corrupt log line skipped during replay (spec §4.3, §4.5).
func Warnf(format string, args ...any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf("WARN "+format, args...)
}

// Debugf logs only when verbose mode is enabled.
func Debugf(format string, args ...any) {
	if !Enabled() {
		return
	}
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf("DEBUG "+format, args...)
}
