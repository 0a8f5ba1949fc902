package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/storeerr"
	"github.com/engram-dev/engram/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "write the spec", Priority: 1, Labels: []string{"docs"}})
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, it.Status)

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "write the spec", got.Title)
	assert.Equal(t, []string{"docs"}, got.Labels)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "eg-0000000000")
	assert.True(t, errors.Is(err, storeerr.ErrNotFound))
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a", Priority: 2})
	require.NoError(t, err)
	created := it.CreatedAt

	newTitle := "b"
	got, err := s.Update(ctx, it.ID, UpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)
	assert.Equal(t, 2, got.Priority)
	assert.Equal(t, created, got.CreatedAt)
}

func TestUpdateDescriptionTriState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a", Description: "first"})
	require.NoError(t, err)
	require.NotNil(t, it.Description)

	got, err := s.Update(ctx, it.ID, UpdateInput{})
	require.NoError(t, err)
	require.NotNil(t, got.Description, "unset should leave description untouched")
	assert.Equal(t, "first", *got.Description)

	got, err = s.Update(ctx, it.ID, UpdateInput{DescriptionSet: true, Description: nil})
	require.NoError(t, err)
	assert.Nil(t, got.Description, "set-to-null should clear description, not blank it")

	empty := ""
	got, err = s.Update(ctx, it.ID, UpdateInput{DescriptionSet: true, Description: &empty})
	require.NoError(t, err)
	require.NotNil(t, got.Description, "explicit empty string is distinct from null")
	assert.Equal(t, "", *got.Description)

	newDesc := "second"
	got, err = s.Update(ctx, it.ID, UpdateInput{DescriptionSet: true, Description: &newDesc})
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, "second", *got.Description)
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)

	_, err = s.SetStatus(ctx, it.ID, types.StatusInProgress)
	require.NoError(t, err)

	closed, err := s.Close(ctx, it.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = s.SetStatus(ctx, it.ID, types.StatusInProgress)
	assert.True(t, errors.Is(err, storeerr.ErrInvalidTransition), "closed can only reopen to open")

	reopened, err := s.SetStatus(ctx, it.ID, types.StatusOpen)
	require.NoError(t, err)
	assert.Nil(t, reopened.ClosedAt, "reopening clears closed_at")
}

func TestSameStatusTransitionIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)

	got, err := s.SetStatus(ctx, it.ID, types.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, got.Status)
}

func TestAddEdgeRejectsSelfReference(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, it.ID, it.ID, types.EdgeBlocks)
	assert.True(t, errors.Is(err, storeerr.ErrSelfReferential))
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "b"})
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, b.ID, a.ID, types.EdgeBlocks)
	assert.True(t, errors.Is(err, storeerr.ErrCycle))
}

func TestAddEdgeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "b"})
	require.NoError(t, err)

	e1, err := s.AddEdge(ctx, a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)
	e2, err := s.AddEdge(ctx, a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)
	assert.Equal(t, e1.Triple(), e2.Triple())
}

func TestDiamondDependencyNotACycleAndReadyReturnsRoot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, CreateInput{Title: "a", Priority: 0})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "b", Priority: 0})
	require.NoError(t, err)
	c, err := s.Create(ctx, CreateInput{Title: "c", Priority: 0})
	require.NoError(t, err)
	d, err := s.Create(ctx, CreateInput{Title: "d", Priority: 0})
	require.NoError(t, err)

	for _, pair := range [][2]string{{b.ID, a.ID}, {c.ID, a.ID}, {d.ID, b.ID}, {d.ID, c.ID}} {
		_, err := s.AddEdge(ctx, pair[0], pair[1], types.EdgeBlocks)
		require.NoError(t, err)
	}

	ready, err := s.Ready(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, a.ID, ready[0].ID)
}

func TestRemoveEdgeUnblocks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateInput{Title: "b"})
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, a.ID, b.ID, types.EdgeBlocks)
	require.NoError(t, err)

	blocked, err := s.Blocked(ctx)
	require.NoError(t, err)
	require.Len(t, blocked, 1)

	require.NoError(t, s.RemoveEdge(ctx, a.ID, b.ID, types.EdgeBlocks))

	blocked, err = s.Blocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestListOrdersByPriorityThenCreation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Create(ctx, CreateInput{Title: "low", Priority: 3})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{Title: "high", Priority: 0})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{Title: "mid", Priority: 1})
	require.NoError(t, err)

	items, err := s.List(ctx, types.WorkFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "high", items[0].Title)
	assert.Equal(t, "mid", items[1].Title)
	assert.Equal(t, "low", items[2].Title)
}

func TestBatchAppliesSequentially(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	results, err := s.Batch(ctx, []Op{
		{Kind: OpCreate, Create: CreateInput{Title: "a"}},
		{Kind: OpCreate, Create: CreateInput{Title: "b"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	aID := results[0].Item.ID
	bID := results[1].Item.ID

	results, err = s.Batch(ctx, []Op{
		{Kind: OpAddEdge, From: aID, To: bID, Edge: types.EdgeBlocks},
		{Kind: OpClose, ItemID: bID, CloseReason: "n/a"},
	})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	ready, err := s.Ready(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, aID, ready[0].ID)
}

func TestRecordAndListEvents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)

	events, err := s.ListEvents(ctx, cacheindex.EventFilter{SourceTask: it.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "create", events[0].Kind)
}

func TestCompactRetainsLatestAndRebuilds(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)
	newTitle := "a renamed"
	_, err = s.Update(ctx, it.ID, UpdateInput{Title: &newTitle})
	require.NoError(t, err)

	require.NoError(t, s.Compact(ctx))

	got, err := s.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "a renamed", got.Title)
}

func TestReopenRecoversFromCorruptTrailingLine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, dir)
	require.NoError(t, err)
	it, err := s.Create(ctx, CreateInput{Title: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	layout := NewLayout(dir)
	f, err := os.OpenFile(layout.ItemsLog(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"eg-broken`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s2, err := Open(ctx, dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
}
