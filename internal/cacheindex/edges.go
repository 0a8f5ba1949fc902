package cacheindex

import (
	"context"
	"database/sql"

	"github.com/engram-dev/engram/internal/types"
)

// UpsertEdge inserts or replaces an edge row, including tombstoned
// (deleted) edges, which the cache keeps rather than physically removing
// so that replay of a delete record after a rebuild stays idempotent.
func (idx *Index) UpsertEdge(ctx context.Context, tx *sql.Tx, e *types.Edge) error {
	defer idx.lockFor(tx)()

	var x execer = idx.db
	if tx != nil {
		x = tx
	}

	deleted := 0
	if e.Deleted {
		deleted = 1
	}
	_, err := x.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, kind, created_at, deleted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (from_id, to_id, kind) DO UPDATE SET
			deleted = excluded.deleted
	`, e.FromID, e.ToID, string(e.Kind), e.CreatedAt.UTC().Format(timeLayout), deleted)
	return wrapDBErrorf(err, "upsert edge %s->%s/%s", e.FromID, e.ToID, e.Kind)
}

// EdgeExists reports whether a non-deleted edge with this triple exists.
func (idx *Index) EdgeExists(ctx context.Context, fromID, toID string, kind types.EdgeKind) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var n int
	err := idx.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM edges WHERE from_id = ? AND to_id = ? AND kind = ? AND deleted = 0",
		fromID, toID, string(kind)).Scan(&n)
	if err != nil {
		return false, wrapDBError("edge exists", err)
	}
	return n > 0, nil
}

// EdgesFrom returns non-deleted outgoing edges of the given kind from id.
func (idx *Index) EdgesFrom(ctx context.Context, id string, kind types.EdgeKind) ([]*types.Edge, error) {
	return idx.queryEdges(ctx, "SELECT from_id, to_id, kind, created_at, deleted FROM edges WHERE from_id = ? AND kind = ? AND deleted = 0", id, string(kind))
}

// EdgesTo returns non-deleted incoming edges of the given kind into id.
func (idx *Index) EdgesTo(ctx context.Context, id string, kind types.EdgeKind) ([]*types.Edge, error) {
	return idx.queryEdges(ctx, "SELECT from_id, to_id, kind, created_at, deleted FROM edges WHERE to_id = ? AND kind = ? AND deleted = 0", id, string(kind))
}

// AllBlockingEdges returns every non-deleted edge whose kind participates in
// the DAG check (blocks, parent_child), for cycle detection.
func (idx *Index) AllBlockingEdges(ctx context.Context) ([]*types.Edge, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.QueryContext(ctx,
		"SELECT from_id, to_id, kind, created_at, deleted FROM edges WHERE kind IN ('blocks','parent_child') AND deleted = 0")
	if err != nil {
		return nil, wrapDBError("all blocking edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (idx *Index) queryEdges(ctx context.Context, query string, args ...interface{}) ([]*types.Edge, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("query edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]*types.Edge, error) {
	var out []*types.Edge
	for rows.Next() {
		var (
			e         types.Edge
			kind      string
			createdAt string
			deleted   int
		)
		if err := rows.Scan(&e.FromID, &e.ToID, &kind, &createdAt, &deleted); err != nil {
			return nil, wrapDBError("scan edge", err)
		}
		e.Kind = types.EdgeKind(kind)
		e.Deleted = deleted != 0
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, wrapDBError("parse edge created_at", err)
		}
		e.CreatedAt = t
		out = append(out, &e)
	}
	return out, rows.Err()
}
