package store

import (
	"context"
	"fmt"

	"github.com/engram-dev/engram/internal/types"
)

// OpKind names a single batched mutation, mirroring the store's own
// operation vocabulary (spec §4.7).
type OpKind string

const (
	OpCreate     OpKind = "create"
	OpUpdate     OpKind = "update"
	OpSetStatus  OpKind = "set_status"
	OpClose      OpKind = "close"
	OpAddEdge    OpKind = "add_edge"
	OpRemoveEdge OpKind = "remove_edge"
)

// Op is a single batched mutation. Only the fields relevant to Kind are
// read.
type Op struct {
	Kind OpKind

	ItemID string // Update, SetStatus, Close

	Create CreateInput
	Update UpdateInput

	Status types.Status // SetStatus

	CloseReason string // Close

	From string // AddEdge, RemoveEdge
	To   string
	Edge types.EdgeKind
}

// Result is one batched op's outcome: at most one of Item/Edge is set, and
// Err is non-nil on failure. A failing op does not abort the batch; each op
// still appends its own record independently, matching spec.md's Non-goal
// of cross-record atomicity.
type Result struct {
	Item *types.Item
	Edge *types.Edge
	Err  error
}

// Batch applies ops in order while holding the single-writer seat for the
// whole sequence, returning one Result per op.
func (s *Store) Batch(ctx context.Context, ops []Op) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]Result, len(ops))
	for i, op := range ops {
		results[i] = s.applyOpLocked(ctx, op)
	}
	return results, nil
}

func (s *Store) applyOpLocked(ctx context.Context, op Op) Result {
	switch op.Kind {
	case OpCreate:
		it, err := s.createLocked(ctx, op.Create)
		return Result{Item: it, Err: err}
	case OpUpdate:
		it, err := s.updateLocked(ctx, op.ItemID, op.Update)
		return Result{Item: it, Err: err}
	case OpSetStatus:
		it, err := s.setStatusLocked(ctx, op.ItemID, op.Status)
		return Result{Item: it, Err: err}
	case OpClose:
		it, err := s.closeLocked(ctx, op.ItemID, op.CloseReason)
		return Result{Item: it, Err: err}
	case OpAddEdge:
		e, err := s.addEdgeLocked(ctx, op.From, op.To, op.Edge)
		return Result{Edge: e, Err: err}
	case OpRemoveEdge:
		err := s.removeEdgeLocked(ctx, op.From, op.To, op.Edge)
		return Result{Err: err}
	default:
		return Result{Err: fmt.Errorf("store: unknown batch op kind %q", op.Kind)}
	}
}
