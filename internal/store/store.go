// Package store implements the transactional contract over the append-only
// logs and the cache index: create/update/close/edge operations, readiness
// and blocked-set queries, batch application, and event recording.
//
// A Store instance assumes it is the sole writer to its directory, the
// discipline the daemon enforces via internal/lockfile; callers embedding
// the store directly (the CLI's no-daemon path) must not run two instances
// against the same directory concurrently.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/rebuild"
)

// Store is the high-level task-graph API: append-only JSONL logs as the
// source of truth, backed by a rebuildable SQLite cache for queries.
type Store struct {
	layout Layout
	idx    *cacheindex.Index

	mu          sync.Mutex // serializes all mutations; queries run unlocked
	itemsLines  int
	edgesLines  int
	eventsLines int
}

// Open opens (creating if necessary) the store rooted at root, rebuilding
// the cache from the logs if it has diverged.
func Open(ctx context.Context, root string) (*Store, error) {
	layout := NewLayout(root)

	idx, err := cacheindex.Open(layout.CacheDB())
	if err != nil {
		return nil, fmt.Errorf("store: open cache: %w", err)
	}

	if err := rebuild.EnsureFresh(ctx, idx, rebuildPaths(layout)); err != nil {
		idx.Close()
		return nil, fmt.Errorf("store: rebuild on open: %w", err)
	}

	itemsLines, edgesLines, err := idx.LineCounts(ctx)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("store: read line counts: %w", err)
	}
	eventsLines, err := idx.EventsLineCount(ctx)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("store: read events line count: %w", err)
	}

	applog.Infof("store: opened at %s", layout.Dir())
	return &Store{
		layout:      layout,
		idx:         idx,
		itemsLines:  itemsLines,
		edgesLines:  edgesLines,
		eventsLines: eventsLines,
	}, nil
}

func rebuildPaths(l Layout) rebuild.Paths {
	return rebuild.Paths{Items: l.ItemsLog(), Edges: l.EdgesLog(), Events: l.EventsLog()}
}

// Close releases the store's cache handle. It does not affect the logs.
func (s *Store) Close() error {
	return s.idx.Close()
}

// Layout exposes the store's resolved file paths.
func (s *Store) Layout() Layout {
	return s.layout
}

// EnsureFresh re-checks log/cache divergence and rebuilds if needed. The
// daemon calls this from its file watcher's debounced callback after a
// write to one of the logs (SPEC §4.9b).
func (s *Store) EnsureFresh(ctx context.Context) error {
	return rebuild.EnsureFresh(ctx, s.idx, rebuildPaths(s.layout))
}
