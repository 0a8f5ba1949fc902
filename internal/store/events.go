package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/jsonl"
	"github.com/engram-dev/engram/internal/types"
)

// RecordEvent appends a standalone event, for callers outside the
// mutating store operations (which already call recordEventLocked
// themselves). kind is a free-form operation name.
func (s *Store) RecordEvent(ctx context.Context, kind, sourceTask, targetTask string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEvent(ctx, kind, sourceTask, targetTask, payload)
}

// recordEventLocked is the internal path used by mutating operations,
// which already hold s.mu. A failure to record the event is logged but
// does not fail the calling operation: the event log is an observability
// supplement, not part of the graph's source of truth.
func (s *Store) recordEventLocked(ctx context.Context, kind, sourceTask, targetTask string, payload map[string]any) {
	if err := s.appendEvent(ctx, kind, sourceTask, targetTask, payload); err != nil {
		applog.Warnf("store: record event %s for %s: %v", kind, sourceTask, err)
	}
}

func (s *Store) appendEvent(ctx context.Context, kind, sourceTask, targetTask string, payload map[string]any) error {
	ev := &types.Event{
		Kind:       kind,
		SourceTask: sourceTask,
		TargetTask: targetTask,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	if err := jsonl.Append(s.layout.EventsLog(), data); err != nil {
		return fmt.Errorf("store: append event: %w", err)
	}
	s.eventsLines++

	return s.idx.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.idx.InsertEvent(ctx, tx, ev); err != nil {
			return err
		}
		return s.idx.SetLineCounts(ctx, tx, s.itemsLines, s.edgesLines, s.eventsLines)
	})
}

// ListEvents filters the in-cache events table.
func (s *Store) ListEvents(ctx context.Context, filter cacheindex.EventFilter) ([]*types.Event, error) {
	return s.idx.ListEvents(ctx, filter)
}
