// Package rebuild reconstructs the cache index by replaying the JSONL logs,
// the store's recovery path whenever the cache's recorded line counts
// disagree with what is actually on disk (a crash, a deleted cache file, or
// an externally edited log).
package rebuild

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/jsonl"
	"github.com/engram-dev/engram/internal/types"
)

// Paths names the three logs a store directory holds.
type Paths struct {
	Items  string
	Edges  string
	Events string
}

// NeedsRebuild reports whether the cache's recorded line counts diverge
// from what is currently on disk for the items and edges logs. The events
// log does not gate a rebuild on its own: it is a supplemental record, not
// a source of graph truth.
func NeedsRebuild(ctx context.Context, idx *cacheindex.Index, paths Paths) (bool, error) {
	cachedItems, cachedEdges, err := idx.LineCounts(ctx)
	if err != nil {
		return false, err
	}
	actualItems, err := jsonl.CountLines(paths.Items)
	if err != nil {
		return false, fmt.Errorf("rebuild: count items lines: %w", err)
	}
	actualEdges, err := jsonl.CountLines(paths.Edges)
	if err != nil {
		return false, fmt.Errorf("rebuild: count edges lines: %w", err)
	}
	return cachedItems != actualItems || cachedEdges != actualEdges, nil
}

// Run clears the cache and replays all three logs into it from scratch.
// It is idempotent: running it twice against the same logs yields the same
// cache state. Parse failures on individual lines are logged and skipped,
// never aborting the replay.
func Run(ctx context.Context, idx *cacheindex.Index, paths Paths) error {
	if err := idx.Reset(ctx); err != nil {
		return fmt.Errorf("rebuild: reset cache: %w", err)
	}

	itemsLines := 0
	if err := jsonl.ForEachLine(paths.Items, func(line []byte) error {
		itemsLines++
		var it types.Item
		if err := json.Unmarshal(line, &it); err != nil {
			applog.Warnf("rebuild: skipping unparseable item line %d: %v", itemsLines, err)
			return nil
		}
		if err := it.Validate(); err != nil {
			applog.Warnf("rebuild: skipping invalid item %s: %v", it.ID, err)
			return nil
		}
		return idx.UpsertItem(ctx, nil, &it)
	}); err != nil {
		return fmt.Errorf("rebuild: replay items: %w", err)
	}

	edgesLines := 0
	if err := jsonl.ForEachLine(paths.Edges, func(line []byte) error {
		edgesLines++
		var e types.Edge
		if err := json.Unmarshal(line, &e); err != nil {
			applog.Warnf("rebuild: skipping unparseable edge line %d: %v", edgesLines, err)
			return nil
		}
		return idx.UpsertEdge(ctx, nil, &e)
	}); err != nil {
		return fmt.Errorf("rebuild: replay edges: %w", err)
	}

	eventsLines := 0
	if paths.Events != "" {
		if err := jsonl.ForEachLine(paths.Events, func(line []byte) error {
			eventsLines++
			var e types.Event
			if err := json.Unmarshal(line, &e); err != nil {
				applog.Warnf("rebuild: skipping unparseable event line %d: %v", eventsLines, err)
				return nil
			}
			return idx.InsertEvent(ctx, nil, &e)
		}); err != nil {
			return fmt.Errorf("rebuild: replay events: %w", err)
		}
	}

	if err := idx.SetLineCounts(ctx, nil, itemsLines, edgesLines, eventsLines); err != nil {
		return fmt.Errorf("rebuild: set line counts: %w", err)
	}
	applog.Infof("rebuild: replayed %d item lines, %d edge lines, %d event lines", itemsLines, edgesLines, eventsLines)
	return nil
}

// EnsureFresh rebuilds the cache if it has diverged from the logs, a no-op
// otherwise. This is what the store calls on open.
func EnsureFresh(ctx context.Context, idx *cacheindex.Index, paths Paths) error {
	stale, err := NeedsRebuild(ctx, idx, paths)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	applog.Infof("rebuild: cache line counts diverged from logs, rebuilding")
	return Run(ctx, idx, paths)
}
