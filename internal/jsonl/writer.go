// Package jsonl implements the append-only, one-record-per-line log format
// that backs items.jsonl, edges.jsonl and events.jsonl (spec §4.3).
package jsonl

import (
	"fmt"
	"os"
)

// Append opens path in append mode, writes data followed by a newline, and
// fsyncs before closing. The log file is opened fresh for every append
// (open-append-write-fsync-close) rather than held open, so the daemon
// never keeps a long-lived write handle (spec §5, Resource policy).
//
// Only after this call returns successfully may a caller update the cache
// or report success to a client — the log is the durable truth.
func Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("jsonl: write %s: %w", path, err)
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		return fmt.Errorf("jsonl: write newline %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("jsonl: fsync %s: %w", path, err)
	}
	return nil
}
