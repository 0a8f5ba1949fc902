// Package cacheindex implements the rebuildable SQLite cache described by
// the store's derived-index contract: items, labels, edges, meta and a
// supplemental events table, none of which is a source of truth. Every
// table here can be dropped and reconstructed by replaying the JSONL logs.
package cacheindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/engram-dev/engram/internal/applog"
)

// Index is a handle on the SQLite-backed cache database.
type Index struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the cache index at dbPath, creating its parent
// directory and schema as needed.
func Open(dbPath string) (*Index, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cacheindex: create dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("cacheindex: open: %w", err)
	}

	// The ncruces driver runs SQLite inside a wazero VM; a single backing
	// connection avoids cross-goroutine contention on that VM instance and
	// matches the single-writer-daemon design.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cacheindex: ping: %w", err)
	}

	idx := &Index{db: db, dbPath: dbPath}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cacheindex: init schema: %w", err)
	}
	applog.Debugf("cacheindex: opened %s", dbPath)
	return idx, nil
}

func (idx *Index) initSchema() error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return tx.Commit()
}

// lockFor returns an unlock func for a write path. When tx is non-nil the
// caller already holds idx.mu via Tx, so this is a no-op; sync.Mutex is not
// reentrant, so every method taking an optional tx must go through this
// instead of locking unconditionally.
func (idx *Index) lockFor(tx *sql.Tx) func() {
	if tx != nil {
		return func() {}
	}
	idx.mu.Lock()
	return idx.mu.Unlock
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Path returns the filesystem path of the cache database.
func (idx *Index) Path() string {
	return idx.dbPath
}

// Reset deletes every row from every table, leaving the cache empty. Callers
// use this before a full rebuild-by-replay.
func (idx *Index) Reset(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("reset: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"items", "labels", "edges", "events", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return wrapDBErrorf(err, "reset: clear %s", table)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'events'"); err != nil {
		// sqlite_sequence only exists once an AUTOINCREMENT table has been
		// written to; its absence on a fresh database is not an error.
		applog.Debugf("cacheindex: reset sqlite_sequence: %v", err)
	}
	return tx.Commit()
}

// Tx runs fn inside a database transaction, committing if fn returns nil
// and rolling back otherwise. Callers use this to keep a cache mutation
// (item/edge upsert plus its line-count bump) atomic within the cache,
// independent of the separate fsync that already made the log durable.
func (idx *Index) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDBError("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Vacuum reclaims free space in the database file.
func (idx *Index) Vacuum(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.db.ExecContext(ctx, "VACUUM")
	return wrapDBError("vacuum", err)
}
