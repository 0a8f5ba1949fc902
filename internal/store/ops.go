package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/engram-dev/engram/internal/graph"
	"github.com/engram-dev/engram/internal/idgen"
	"github.com/engram-dev/engram/internal/jsonl"
	"github.com/engram-dev/engram/internal/storeerr"
	"github.com/engram-dev/engram/internal/types"
)

// CreateInput are the fields accepted by Create.
type CreateInput struct {
	Title       string
	Priority    int
	Labels      []string
	Description string
}

// Create stamps and appends a new Open item.
func (s *Store) Create(ctx context.Context, in CreateInput) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, in)
}

func (s *Store) createLocked(ctx context.Context, in CreateInput) (*types.Item, error) {
	now := time.Now().UTC()
	id, err := idgen.New(in.Title, now)
	if err != nil {
		return nil, fmt.Errorf("store: generate id: %w", err)
	}

	it := &types.Item{
		ID:          id,
		Title:       in.Title,
		Description: nonEmptyDescription(in.Description),
		Status:      types.StatusOpen,
		Priority:    in.Priority,
		Labels:      in.Labels,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}

	if err := s.appendItem(ctx, it); err != nil {
		return nil, err
	}
	s.recordEventLocked(ctx, "create", it.ID, "", map[string]any{"title": it.Title})
	return it, nil
}

// nonEmptyDescription maps the CLI/library-facing plain string input onto
// the tri-state field: an empty string at creation time means "no
// description given" (nil), not "description explicitly set to empty".
func nonEmptyDescription(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Get returns a single item by ID, or storeerr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*types.Item, error) {
	return s.idx.GetItem(ctx, id)
}

// UpdateInput carries the tri-state optional fields of update. For Title,
// Priority and Labels a nil pointer means "leave as-is". Description has
// three distinguishable states, since a real implementation needs to tell
// "clear the description" apart from "set it to the empty string" apart
// from "leave it alone": DescriptionSet false leaves the field untouched;
// DescriptionSet true with Description nil clears it to null; DescriptionSet
// true with Description non-nil sets it to *Description (which may itself
// point at "").
type UpdateInput struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Priority       *int
	Labels         *[]string
}

// Update appends a new record merging the given fields onto the current
// item, preserving created_at, closed_at, close_reason and status.
func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, in)
}

func (s *Store) updateLocked(ctx context.Context, id string, in UpdateInput) (*types.Item, error) {
	it, err := s.idx.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		it.Title = *in.Title
	}
	if in.DescriptionSet {
		it.Description = in.Description
	}
	if in.Priority != nil {
		it.Priority = *in.Priority
	}
	if in.Labels != nil {
		it.Labels = *in.Labels
	}
	it.UpdatedAt = time.Now().UTC()

	if err := it.Validate(); err != nil {
		return nil, err
	}
	if err := s.appendItem(ctx, it); err != nil {
		return nil, err
	}
	s.recordEventLocked(ctx, "update", it.ID, "", nil)
	return it, nil
}

// allowedTransition implements spec §4.7's status transition table:
// same-status is a no-op; from Open/InProgress/Blocked, any target is
// allowed; from Closed, only Open is allowed.
func allowedTransition(from, to types.Status) bool {
	if from == to {
		return true
	}
	if from == types.StatusClosed {
		return to == types.StatusOpen
	}
	return true
}

// SetStatus transitions an item to a new status, appending a record.
func (s *Store) SetStatus(ctx context.Context, id string, to types.Status) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(ctx, id, to)
}

func (s *Store) setStatusLocked(ctx context.Context, id string, to types.Status) (*types.Item, error) {
	it, err := s.idx.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: status %q is not recognized", storeerr.ErrValidation, to)
	}
	if !allowedTransition(it.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", storeerr.ErrInvalidTransition, it.Status, to)
	}

	it.Status = to
	it.UpdatedAt = time.Now().UTC()
	if to == types.StatusClosed {
		if it.ClosedAt == nil {
			closedAt := it.UpdatedAt
			it.ClosedAt = &closedAt
		}
	} else {
		it.ClosedAt = nil
		it.CloseReason = ""
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}
	if err := s.appendItem(ctx, it); err != nil {
		return nil, err
	}
	s.recordEventLocked(ctx, "set_status", it.ID, "", map[string]any{"status": string(to)})
	return it, nil
}

// Close transitions an item to Closed, stamping closed_at and close_reason.
func (s *Store) Close(ctx context.Context, id, reason string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(ctx, id, reason)
}

func (s *Store) closeLocked(ctx context.Context, id, reason string) (*types.Item, error) {
	it, err := s.idx.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowedTransition(it.Status, types.StatusClosed) {
		return nil, fmt.Errorf("%w: %s -> closed", storeerr.ErrInvalidTransition, it.Status)
	}

	now := time.Now().UTC()
	it.Status = types.StatusClosed
	it.UpdatedAt = now
	it.ClosedAt = &now
	it.CloseReason = reason

	if err := it.Validate(); err != nil {
		return nil, err
	}
	if err := s.appendItem(ctx, it); err != nil {
		return nil, err
	}
	s.recordEventLocked(ctx, "close", it.ID, "", map[string]any{"reason": reason})
	return it, nil
}

// AddEdge appends an edge record, rejecting self-references, missing
// endpoints, and (for blocking kinds) cycles. Re-adding an existing
// non-deleted edge appends nothing and returns a record for the same
// triple, stamped with the current time.
func (s *Store) AddEdge(ctx context.Context, from, to string, kind types.EdgeKind) (*types.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEdgeLocked(ctx, from, to, kind)
}

func (s *Store) addEdgeLocked(ctx context.Context, from, to string, kind types.EdgeKind) (*types.Edge, error) {
	e := &types.Edge{FromID: from, ToID: to, Kind: kind, CreatedAt: time.Now().UTC()}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.idx.GetItem(ctx, from); err != nil {
		return nil, err
	}
	if _, err := s.idx.GetItem(ctx, to); err != nil {
		return nil, err
	}

	exists, err := s.idx.EdgeExists(ctx, from, to, kind)
	if err != nil {
		return nil, err
	}
	if exists {
		return e, nil
	}

	if kind.Blocking() {
		cyclic, err := graph.WouldCycle(ctx, s.idx, from, to)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, fmt.Errorf("%w: %s -> %s would create a cycle", storeerr.ErrCycle, from, to)
		}
	}

	if err := s.appendEdge(ctx, e); err != nil {
		return nil, err
	}
	s.recordEventLocked(ctx, "add_edge", from, to, map[string]any{"kind": string(kind)})
	return e, nil
}

// RemoveEdge appends a tombstone record for the given triple.
func (s *Store) RemoveEdge(ctx context.Context, from, to string, kind types.EdgeKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeEdgeLocked(ctx, from, to, kind)
}

func (s *Store) removeEdgeLocked(ctx context.Context, from, to string, kind types.EdgeKind) error {
	e := &types.Edge{FromID: from, ToID: to, Kind: kind, CreatedAt: time.Now().UTC(), Deleted: true}
	if err := s.appendEdge(ctx, e); err != nil {
		return err
	}
	s.recordEventLocked(ctx, "remove_edge", from, to, map[string]any{"kind": string(kind)})
	return nil
}

// List returns items matching filter, sorted by (priority asc, created_at asc).
func (s *Store) List(ctx context.Context, filter types.WorkFilter) ([]*types.Item, error) {
	return s.idx.ListItems(ctx, filter)
}

// Ready returns the items satisfying spec §4.6's readiness predicate.
func (s *Store) Ready(ctx context.Context) ([]*types.Item, error) {
	return s.idx.ReadyItems(ctx)
}

// Blocked returns the items satisfying spec §4.6's blocked-set predicate.
func (s *Store) Blocked(ctx context.Context) ([]*types.Item, error) {
	return s.idx.BlockedItems(ctx)
}

// appendItem writes it to items.jsonl, then upserts the cache and bumps
// the items line-count meta atomically with that upsert. The log fsync has
// already happened by the time the cache is touched, matching spec §4.3's
// "only after fsync succeeds may the cache be updated" rule.
func (s *Store) appendItem(ctx context.Context, it *types.Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("store: marshal item: %w", err)
	}
	if err := jsonl.Append(s.layout.ItemsLog(), data); err != nil {
		return fmt.Errorf("store: append item: %w", err)
	}
	s.itemsLines++

	return s.idx.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.idx.UpsertItem(ctx, tx, it); err != nil {
			return err
		}
		return s.idx.SetLineCounts(ctx, tx, s.itemsLines, s.edgesLines, s.eventsLines)
	})
}

// appendEdge writes e to edges.jsonl, then upserts the cache and bumps the
// edges line-count meta atomically with that upsert.
func (s *Store) appendEdge(ctx context.Context, e *types.Edge) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: marshal edge: %w", err)
	}
	if err := jsonl.Append(s.layout.EdgesLog(), data); err != nil {
		return fmt.Errorf("store: append edge: %w", err)
	}
	s.edgesLines++

	return s.idx.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.idx.UpsertEdge(ctx, tx, e); err != nil {
			return err
		}
		return s.idx.SetLineCounts(ctx, tx, s.itemsLines, s.edgesLines, s.eventsLines)
	})
}
