package cacheindex

import (
	"context"
	"database/sql"
	"strconv"
)

func (idx *Index) getMetaInt(ctx context.Context, q queryer, key string) (int, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapDBErrorf(err, "get meta %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, wrapDBErrorf(err, "parse meta %s", key)
	}
	return n, true, nil
}

func setMetaInt(ctx context.Context, e execer, key string, value int) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, strconv.Itoa(value))
	return wrapDBErrorf(err, "set meta %s", key)
}

// LineCounts reports the JSONL line counts the cache was last built from.
func (idx *Index) LineCounts(ctx context.Context) (itemsLines, edgesLines int, err error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	itemsLines, _, err = idx.getMetaInt(ctx, idx.db, metaKeyItemsLines)
	if err != nil {
		return 0, 0, err
	}
	edgesLines, _, err = idx.getMetaInt(ctx, idx.db, metaKeyEdgesLines)
	if err != nil {
		return 0, 0, err
	}
	return itemsLines, edgesLines, nil
}

// SetLineCounts records the JSONL line counts the cache reflects, atomically
// with whatever transaction the caller is already inside via tx, or against
// the database directly if tx is nil.
func (idx *Index) SetLineCounts(ctx context.Context, tx *sql.Tx, itemsLines, edgesLines, eventsLines int) error {
	defer idx.lockFor(tx)()

	var e execer = idx.db
	if tx != nil {
		e = tx
	}
	if err := setMetaInt(ctx, e, metaKeyItemsLines, itemsLines); err != nil {
		return err
	}
	if err := setMetaInt(ctx, e, metaKeyEdgesLines, edgesLines); err != nil {
		return err
	}
	return setMetaInt(ctx, e, metaKeyEventsLines, eventsLines)
}

// EventsLineCount reports the events.jsonl line count the cache reflects.
func (idx *Index) EventsLineCount(ctx context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, _, err := idx.getMetaInt(ctx, idx.db, metaKeyEventsLines)
	return n, err
}

// queryer and execer narrow *sql.DB/*sql.Tx to what meta helpers need,
// letting callers run them either standalone or inside a transaction.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
