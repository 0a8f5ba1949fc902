package cacheindex

// schema defines the five derived tables the cache index holds: items,
// labels, edges, events and meta. Everything here is rebuildable by
// replaying the JSONL logs; none of it is a source of truth.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT,
	status       TEXT NOT NULL CHECK (status IN ('open','in_progress','blocked','closed')),
	priority     INTEGER NOT NULL CHECK (priority BETWEEN 0 AND 4),
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	closed_at    TEXT,
	close_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_items_status_priority ON items (status, priority, created_at);

CREATE TABLE IF NOT EXISTS labels (
	item_id TEXT NOT NULL REFERENCES items (id) ON DELETE CASCADE,
	label   TEXT NOT NULL,
	PRIMARY KEY (item_id, label)
);

CREATE INDEX IF NOT EXISTS idx_labels_label ON labels (label);

CREATE TABLE IF NOT EXISTS edges (
	from_id    TEXT NOT NULL,
	to_id      TEXT NOT NULL,
	kind       TEXT NOT NULL CHECK (kind IN ('blocks','parent_child','related')),
	created_at TEXT NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (from_id, to_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_edges_to_kind ON edges (to_id, kind, deleted);
CREATE INDEX IF NOT EXISTS idx_edges_from_kind ON edges (from_id, kind, deleted);

CREATE TABLE IF NOT EXISTS events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	source_task TEXT NOT NULL,
	target_task TEXT,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_kind ON events (kind, created_at);
CREATE INDEX IF NOT EXISTS idx_events_source ON events (source_task, created_at);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Meta keys. jsonl_items_lines and jsonl_edges_lines are the two keys the
// divergence check contract names; events_lines is a supplemental key for
// the events log, which the cache also mirrors for the event-listing
// operation but which carries no durability guarantee of its own.
const (
	metaKeyItemsLines  = "jsonl_items_lines"
	metaKeyEdgesLines  = "jsonl_edges_lines"
	metaKeyEventsLines = "events_lines"
	metaKeySchemaVer   = "schema_version"
)

const currentSchemaVersion = "1"
