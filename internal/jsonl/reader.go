package jsonl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/engram-dev/engram/internal/applog"
)

// ForEachLine reads path line by line and invokes fn with each complete
// line's bytes (without the trailing newline), in file order.
//
// A partially-written trailing line — possible after a crash mid-write —
// is detected (EOF reached with buffered data but no terminating newline)
// and treated as absent: it is skipped with a warning logged, rather than
// passed to fn or treated as an error (spec §4.3).
//
// If path does not exist, ForEachLine returns nil without invoking fn.
func ForEachLine(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("jsonl: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	lineNum := 0
	for {
		lineNum++
		line, err := r.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 {
					applog.Warnf("jsonl: %s:%d: truncated trailing line, skipping", path, lineNum)
				}
				return nil
			}
			return fmt.Errorf("jsonl: read %s:%d: %w", path, lineNum, err)
		}
		line = line[:len(line)-1] // drop '\n'
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("jsonl: %s:%d: %w", path, lineNum, err)
		}
	}
}

// CountLines returns the number of complete (newline-terminated) lines in
// path, used by the cache's divergence check (spec §4.5). A missing file
// counts as zero lines. A truncated trailing line is not counted, matching
// ForEachLine's treatment of it as absent.
func CountLines(path string) (int, error) {
	n := 0
	err := ForEachLine(path, func([]byte) error {
		n++
		return nil
	})
	return n, err
}
