package cacheindex

import (
	"context"
	"database/sql"
	"time"

	"github.com/engram-dev/engram/internal/types"
)

const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// UpsertItem inserts or replaces an item row and its labels. Callers
// typically run this inside an existing transaction supplied by the
// rebuild or store layer; tx may be nil to run standalone.
func (idx *Index) UpsertItem(ctx context.Context, tx *sql.Tx, it *types.Item) error {
	defer idx.lockFor(tx)()

	var e execer = idx.db
	if tx != nil {
		e = tx
	}

	var closedAt interface{}
	if it.ClosedAt != nil {
		closedAt = it.ClosedAt.UTC().Format(timeLayout)
	}
	var description interface{}
	if it.Description != nil {
		description = *it.Description
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO items (id, title, description, status, priority, created_at, updated_at, closed_at, close_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			close_reason = excluded.close_reason
	`, it.ID, it.Title, description, string(it.Status), it.Priority,
		it.CreatedAt.UTC().Format(timeLayout), it.UpdatedAt.UTC().Format(timeLayout),
		closedAt, it.CloseReason)
	if err != nil {
		return wrapDBErrorf(err, "upsert item %s", it.ID)
	}

	if _, err := e.ExecContext(ctx, "DELETE FROM labels WHERE item_id = ?", it.ID); err != nil {
		return wrapDBErrorf(err, "clear labels for %s", it.ID)
	}
	for _, l := range it.Labels {
		if _, err := e.ExecContext(ctx, "INSERT INTO labels (item_id, label) VALUES (?, ?)", it.ID, l); err != nil {
			return wrapDBErrorf(err, "insert label %s for %s", l, it.ID)
		}
	}
	return nil
}

// GetItem returns a single item by ID, with its labels populated.
func (idx *Index) GetItem(ctx context.Context, id string) (*types.Item, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.getItemLocked(ctx, idx.db, id)
}

func (idx *Index) getItemLocked(ctx context.Context, q *sql.DB, id string) (*types.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, created_at, updated_at, closed_at, close_reason
		FROM items WHERE id = ?`, id)

	it, err := scanItem(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get item %s", id)
	}

	labels, err := idx.labelsForLocked(ctx, q, id)
	if err != nil {
		return nil, err
	}
	it.Labels = labels
	return it, nil
}

func (idx *Index) labelsForLocked(ctx context.Context, q *sql.DB, itemID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT label FROM labels WHERE item_id = ? ORDER BY label", itemID)
	if err != nil {
		return nil, wrapDBErrorf(err, "labels for %s", itemID)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, wrapDBError("scan label", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*types.Item, error) {
	var (
		it             types.Item
		status         string
		createdAt      string
		updatedAt      string
		closedAt       sql.NullString
		closeReason    sql.NullString
		description    sql.NullString
	)
	if err := row.Scan(&it.ID, &it.Title, &description, &status, &it.Priority, &createdAt, &updatedAt, &closedAt, &closeReason); err != nil {
		return nil, err
	}
	it.Status = types.Status(status)
	if description.Valid {
		it.Description = &description.String
	}
	it.CloseReason = closeReason.String

	var err error
	it.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, err
	}
	it.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t, err := time.Parse(timeLayout, closedAt.String)
		if err != nil {
			return nil, err
		}
		it.ClosedAt = &t
	}
	return &it, nil
}

// ListItems returns items matching filter, ordered by priority then
// creation time, the same order used for readiness.
func (idx *Index) ListItems(ctx context.Context, filter types.WorkFilter) ([]*types.Item, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	query := `SELECT id, title, description, status, priority, created_at, updated_at, closed_at, close_reason
		FROM items`
	var args []interface{}
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY priority ASC, created_at ASC"

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list items", err)
	}
	defer rows.Close()

	var out []*types.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, wrapDBError("scan item", err)
		}
		labels, err := idx.labelsForLocked(ctx, idx.db, it.ID)
		if err != nil {
			return nil, err
		}
		it.Labels = labels
		out = append(out, it)
	}
	return out, rows.Err()
}
