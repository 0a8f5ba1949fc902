package cacheindex

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/engram-dev/engram/internal/applog"
)

// DivergenceWatcher watches a log directory for writes to the JSONL logs
// (an external editor, a manual merge, a second instance started against
// the same directory) and debounces them into a single callback,
// supplementing the line-count divergence check the store runs on open.
// It does not tell this process's own appends apart from external writes:
// every write or create of a .jsonl file in the directory counts.
type DivergenceWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchDivergence starts watching logDir for writes to items.jsonl,
// edges.jsonl or events.jsonl, calling onChange (debounced by delay) for
// each burst of writes. The caller owns the returned watcher's lifetime via
// Close.
func WatchDivergence(logDir string, delay time.Duration, onChange func()) (*DivergenceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(logDir); err != nil {
		w.Close()
		return nil, err
	}

	dw := &DivergenceWatcher{watcher: w, done: make(chan struct{})}
	go dw.loop(delay, onChange)
	return dw, nil
}

func (dw *DivergenceWatcher) loop(delay time.Duration, onChange func()) {
	var timer *time.Timer
	for {
		select {
		case <-dw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, ".jsonl") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, onChange)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			applog.Warnf("cacheindex: watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (dw *DivergenceWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
