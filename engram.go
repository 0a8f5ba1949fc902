// Package engram provides a minimal public API for embedding the task
// graph store directly in a Go program, for callers that want Create/
// Update/Ready without going through the daemon or the CLI.
//
// Most callers instead talk to a running daemon via internal/rpc, or just
// use the cmd/engram CLI. This package exports the types and constructor
// needed for Go programs that embed the store in-process.
package engram

import (
	"context"

	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/types"
)

// Core types for working with items and their relations.
type (
	Item       = types.Item
	Edge       = types.Edge
	Event      = types.Event
	Status     = types.Status
	EdgeKind   = types.EdgeKind
	WorkFilter = types.WorkFilter
)

// Status constants.
const (
	StatusOpen       = types.StatusOpen
	StatusInProgress = types.StatusInProgress
	StatusBlocked    = types.StatusBlocked
	StatusClosed     = types.StatusClosed
)

// EdgeKind constants.
const (
	EdgeBlocks      = types.EdgeBlocks
	EdgeParentChild = types.EdgeParentChild
	EdgeRelated     = types.EdgeRelated
)

// Store is the embeddable task-graph API: append-only JSONL logs backed
// by a rebuildable SQLite cache. A Store must be the sole writer to its
// directory; concurrent embedders against the same root race the way two
// daemons would (see internal/lockfile).
type Store = store.Store

// CreateInput and UpdateInput are the input types for Store.Create and
// Store.Update.
type (
	CreateInput = store.CreateInput
	UpdateInput = store.UpdateInput
)

// Open opens (creating if necessary) the store rooted at root, rebuilding
// the cache from the logs if it has diverged.
func Open(ctx context.Context, root string) (*Store, error) {
	return store.Open(ctx, root)
}
