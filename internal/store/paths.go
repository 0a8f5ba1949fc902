package store

import "path/filepath"

// StoreDirName is the on-disk directory name holding a store's logs, cache
// and daemon liveness files, relative to the store root.
const StoreDirName = ".engram"

// Layout resolves every file path a store instance needs from its root
// directory.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Dir() string         { return filepath.Join(l.Root, StoreDirName) }
func (l Layout) ItemsLog() string    { return filepath.Join(l.Dir(), "items.jsonl") }
func (l Layout) EdgesLog() string    { return filepath.Join(l.Dir(), "edges.jsonl") }
func (l Layout) EventsLog() string   { return filepath.Join(l.Dir(), "events.jsonl") }
func (l Layout) CacheDB() string     { return filepath.Join(l.Dir(), "engram.db") }
func (l Layout) SocketPath() string  { return filepath.Join(l.Dir(), "daemon.sock") }
func (l Layout) PidPath() string     { return filepath.Join(l.Dir(), "daemon.pid") }
func (l Layout) LockPath() string    { return filepath.Join(l.Dir(), "daemon.lock") }
func (l Layout) ConfigPath() string  { return filepath.Join(l.Dir(), "config.yaml") }
func (l Layout) TuningPath() string  { return filepath.Join(l.Dir(), "daemon.toml") }
