package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/jsonl"
	"github.com/engram-dev/engram/internal/rebuild"
	"github.com/engram-dev/engram/internal/types"
)

// Compact rewrites items.jsonl and edges.jsonl to hold only the latest
// record per key (latest per item id; latest non-tombstone per edge
// triple, with tombstones dropped entirely), then rebuilds the cache from
// the compacted logs. This is a thin surface over the core per spec.md §1;
// it never changes observable item/edge state, only log size.
func (s *Store) Compact(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	latestItems := make(map[string]json.RawMessage)
	var itemOrder []string
	if err := jsonl.ForEachLine(s.layout.ItemsLog(), func(line []byte) error {
		var it types.Item
		if err := json.Unmarshal(line, &it); err != nil {
			applog.Warnf("compact: skipping unparseable item line: %v", err)
			return nil
		}
		if _, seen := latestItems[it.ID]; !seen {
			itemOrder = append(itemOrder, it.ID)
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		latestItems[it.ID] = cp
		return nil
	}); err != nil {
		return fmt.Errorf("compact: scan items: %w", err)
	}

	type edgeKey [3]string
	latestEdges := make(map[edgeKey]json.RawMessage)
	var edgeOrder []edgeKey
	if err := jsonl.ForEachLine(s.layout.EdgesLog(), func(line []byte) error {
		var e types.Edge
		if err := json.Unmarshal(line, &e); err != nil {
			applog.Warnf("compact: skipping unparseable edge line: %v", err)
			return nil
		}
		key := edgeKey{e.FromID, e.ToID, string(e.Kind)}
		if e.Deleted {
			delete(latestEdges, key)
			return nil
		}
		if _, seen := latestEdges[key]; !seen {
			edgeOrder = append(edgeOrder, key)
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		latestEdges[key] = cp
		return nil
	}); err != nil {
		return fmt.Errorf("compact: scan edges: %w", err)
	}

	if err := rewriteLog(s.layout.ItemsLog(), func(w func([]byte) error) error {
		for _, id := range itemOrder {
			if err := w(latestItems[id]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("compact: rewrite items: %w", err)
	}

	if err := rewriteLog(s.layout.EdgesLog(), func(w func([]byte) error) error {
		written := make(map[edgeKey]bool, len(latestEdges))
		for _, key := range edgeOrder {
			line, ok := latestEdges[key]
			if !ok {
				continue // tombstoned after last write; dropped entirely
			}
			if written[key] {
				continue // re-added after a tombstone; already written once
			}
			written[key] = true
			if err := w(line); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("compact: rewrite edges: %w", err)
	}

	if err := rebuild.Run(ctx, s.idx, rebuildPaths(s.layout)); err != nil {
		return fmt.Errorf("compact: rebuild after compaction: %w", err)
	}
	itemsLines, edgesLines, err := s.idx.LineCounts(ctx)
	if err != nil {
		return err
	}
	eventsLines, err := s.idx.EventsLineCount(ctx)
	if err != nil {
		return err
	}
	s.itemsLines, s.edgesLines, s.eventsLines = itemsLines, edgesLines, eventsLines

	applog.Infof("compact: %d items, %d edges retained", len(itemOrder), len(edgeOrder))
	return nil
}

// rewriteLog atomically replaces path's contents by writing lines via
// write into a temp file in the same directory, then renaming over path.
func rewriteLog(path string, write func(w func([]byte) error) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "compact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = write(func(line []byte) error {
		if _, err := tmp.Write(line); err != nil {
			return err
		}
		_, err := tmp.Write([]byte("\n"))
		return err
	})
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Vacuum reclaims free space in the SQLite cache file.
func (s *Store) Vacuum(ctx context.Context) error {
	return s.idx.Vacuum(ctx)
}
