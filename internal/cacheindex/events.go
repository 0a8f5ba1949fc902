package cacheindex

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/engram-dev/engram/internal/types"
)

// InsertEvent appends an event row to the cache mirror of events.jsonl.
func (idx *Index) InsertEvent(ctx context.Context, tx *sql.Tx, e *types.Event) error {
	defer idx.lockFor(tx)()

	var x execer = idx.db
	if tx != nil {
		x = tx
	}

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `
		INSERT INTO events (kind, source_task, target_task, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Kind, e.SourceTask, nullableString(e.TargetTask), string(payload), e.CreatedAt.UTC().Format(timeLayout))
	return wrapDBError("insert event", err)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// EventFilter narrows a ListEvents query. Empty strings mean "no filter"
// for that field; an empty Since means "no lower bound".
type EventFilter struct {
	Kind       string
	SourceTask string
	TargetTask string
	Since      string // RFC3339Nano lower bound, inclusive; empty means unbounded
}

// ListEvents returns events matching filter, oldest first.
func (idx *Index) ListEvents(ctx context.Context, filter EventFilter) ([]*types.Event, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := "SELECT kind, source_task, target_task, payload, created_at FROM events WHERE 1=1"
	var args []interface{}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.SourceTask != "" {
		query += " AND source_task = ?"
		args = append(args, filter.SourceTask)
	}
	if filter.TargetTask != "" {
		query += " AND target_task = ?"
		args = append(args, filter.TargetTask)
	}
	if filter.Since != "" {
		query += " AND created_at >= ?"
		args = append(args, filter.Since)
	}
	query += " ORDER BY seq ASC"

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list events", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		var (
			e           types.Event
			targetTask  sql.NullString
			payloadJSON string
			createdAt   string
		)
		if err := rows.Scan(&e.Kind, &e.SourceTask, &targetTask, &payloadJSON, &createdAt); err != nil {
			return nil, wrapDBError("scan event", err)
		}
		e.TargetTask = targetTask.String
		if payloadJSON != "" {
			if err := json.Unmarshal([]byte(payloadJSON), &e.Payload); err != nil {
				return nil, wrapDBError("unmarshal event payload", err)
			}
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, wrapDBError("parse event created_at", err)
		}
		e.CreatedAt = t
		out = append(out, &e)
	}
	return out, rows.Err()
}
