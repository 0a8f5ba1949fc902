package graph

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/types"
)

func openTestIndex(t *testing.T) *cacheindex.Index {
	t.Helper()
	idx, err := cacheindex.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func addItem(t *testing.T, idx *cacheindex.Index, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, idx.UpsertItem(context.Background(), nil, &types.Item{
		ID: id, Title: id, Status: types.StatusOpen, CreatedAt: now, UpdatedAt: now,
	}))
}

func addBlocks(t *testing.T, idx *cacheindex.Index, from, to string) {
	t.Helper()
	require.NoError(t, idx.UpsertEdge(context.Background(), nil, &types.Edge{
		FromID: from, ToID: to, Kind: types.EdgeBlocks, CreatedAt: time.Now().UTC(),
	}))
}

func TestWouldCycleDirect(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	addItem(t, idx, "a")
	addItem(t, idx, "b")
	addBlocks(t, idx, "a", "b")

	cyclic, err := WouldCycle(ctx, idx, "b", "a")
	require.NoError(t, err)
	assert.True(t, cyclic)
}

func TestWouldCycleSelfReference(t *testing.T) {
	cyclic, err := WouldCycle(context.Background(), openTestIndex(t), "a", "a")
	require.NoError(t, err)
	assert.True(t, cyclic)
}

func TestDiamondIsNotACycle(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		addItem(t, idx, id)
	}
	addBlocks(t, idx, "a", "b")
	addBlocks(t, idx, "a", "c")
	addBlocks(t, idx, "b", "d")

	cyclic, err := WouldCycle(ctx, idx, "c", "d")
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestWouldCycleUnrelatedNodes(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	addItem(t, idx, "a")
	addItem(t, idx, "b")
	addItem(t, idx, "c")
	addBlocks(t, idx, "a", "b")

	cyclic, err := WouldCycle(ctx, idx, "c", "a")
	require.NoError(t, err)
	assert.False(t, cyclic)
}
