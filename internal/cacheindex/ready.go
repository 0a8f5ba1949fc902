package cacheindex

import (
	"context"

	"github.com/engram-dev/engram/internal/types"
)

// Readiness is computed directly against the cache rather than a
// materialized table: the cache schema holds only items, labels, edges,
// events and meta, so the NOT EXISTS form below stands in for what the
// teacher tracks with a separate blocked-issues cache table.
const readyPredicate = `
	status = 'open'
	AND NOT EXISTS (
		SELECT 1 FROM edges b
		JOIN items bt ON bt.id = b.to_id
		WHERE b.from_id = items.id AND b.kind = 'blocks' AND b.deleted = 0
		  AND bt.status != 'closed'
	)
	AND NOT EXISTS (
		SELECT 1 FROM edges p
		JOIN items pc ON pc.id = p.from_id
		WHERE p.to_id = items.id AND p.kind = 'parent_child' AND p.deleted = 0
		  AND pc.status != 'closed'
	)
`

// ReadyItems returns open items with no unresolved outbound blocks edge and
// no unresolved inbound parent_child (child) edge, ordered by priority then
// creation time.
func (idx *Index) ReadyItems(ctx context.Context) ([]*types.Item, error) {
	return idx.queryItemsWhere(ctx, readyPredicate)
}

const blockedPredicate = `
	status = 'open'
	AND (
		EXISTS (
			SELECT 1 FROM edges b
			JOIN items bt ON bt.id = b.to_id
			WHERE b.from_id = items.id AND b.kind = 'blocks' AND b.deleted = 0
			  AND bt.status != 'closed'
		)
		OR EXISTS (
			SELECT 1 FROM edges p
			JOIN items pc ON pc.id = p.from_id
			WHERE p.to_id = items.id AND p.kind = 'parent_child' AND p.deleted = 0
			  AND pc.status != 'closed'
		)
	)
`

// BlockedItems returns open items that fail the readiness predicate, i.e.
// have at least one unresolved blocking dependency.
func (idx *Index) BlockedItems(ctx context.Context) ([]*types.Item, error) {
	return idx.queryItemsWhere(ctx, blockedPredicate)
}

func (idx *Index) queryItemsWhere(ctx context.Context, predicate string) ([]*types.Item, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, title, description, status, priority, created_at, updated_at, closed_at, close_reason
		FROM items
		WHERE `+predicate+`
		ORDER BY priority ASC, created_at ASC
	`)
	if err != nil {
		return nil, wrapDBError("query items where", err)
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
