package rebuild

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/types"
)

func writeLines(t *testing.T, path string, lines ...any) {
	t.Helper()
	var buf []byte
	for _, l := range lines {
		b, err := json.Marshal(l)
		require.NoError(t, err)
		buf = append(buf, b...)
		buf = append(buf, '\n')
	}
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestRunReplaysItemsAndEdges(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Items:  filepath.Join(dir, "items.jsonl"),
		Edges:  filepath.Join(dir, "edges.jsonl"),
		Events: filepath.Join(dir, "events.jsonl"),
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	it1 := types.Item{ID: "eg-0000000001", Title: "first", Status: types.StatusOpen, Priority: 1, CreatedAt: now, UpdatedAt: now}
	it1Update := it1
	it1Update.Title = "first (renamed)"
	it1Update.UpdatedAt = now.Add(time.Second)
	it2 := types.Item{ID: "eg-0000000002", Title: "second", Status: types.StatusOpen, Priority: 0, CreatedAt: now, UpdatedAt: now}

	writeLines(t, paths.Items, it1, it2, it1Update)

	edge := types.Edge{FromID: it1.ID, ToID: it2.ID, Kind: types.EdgeBlocks, CreatedAt: now}
	edgeRemoved := edge
	edgeRemoved.Deleted = true
	writeLines(t, paths.Edges, edge, edgeRemoved)

	ctx := context.Background()
	idx, err := cacheindex.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, Run(ctx, idx, paths))

	got, err := idx.GetItem(ctx, it1.ID)
	require.NoError(t, err)
	assert.Equal(t, "first (renamed)", got.Title)

	exists, err := idx.EdgeExists(ctx, it1.ID, it2.ID, types.EdgeBlocks)
	require.NoError(t, err)
	assert.False(t, exists, "tombstoned edge should not exist after replay")

	itemsLines, edgesLines, err := idx.LineCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, itemsLines)
	assert.Equal(t, 2, edgesLines)
}

func TestRunSkipsUnparseableLines(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Items: filepath.Join(dir, "items.jsonl"), Edges: filepath.Join(dir, "edges.jsonl")}

	now := time.Now().UTC().Truncate(time.Millisecond)
	valid := types.Item{ID: "eg-0000000003", Title: "valid", Status: types.StatusOpen, Priority: 2, CreatedAt: now, UpdatedAt: now}
	b, err := json.Marshal(valid)
	require.NoError(t, err)
	content := append([]byte("{not valid json\n"), append(b, '\n')...)
	require.NoError(t, os.WriteFile(paths.Items, content, 0o644))
	require.NoError(t, os.WriteFile(paths.Edges, nil, 0o644))

	ctx := context.Background()
	idx, err := cacheindex.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, Run(ctx, idx, paths))

	got, err := idx.GetItem(ctx, valid.ID)
	require.NoError(t, err)
	assert.Equal(t, "valid", got.Title)
}

func TestNeedsRebuildDetectsDivergence(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Items: filepath.Join(dir, "items.jsonl"), Edges: filepath.Join(dir, "edges.jsonl")}

	ctx := context.Background()
	idx, err := cacheindex.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer idx.Close()

	stale, err := NeedsRebuild(ctx, idx, paths)
	require.NoError(t, err)
	assert.False(t, stale, "empty logs and empty cache should agree")

	now := time.Now().UTC()
	writeLines(t, paths.Items, types.Item{ID: "eg-0000000004", Title: "x", Status: types.StatusOpen, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, os.WriteFile(paths.Edges, nil, 0o644))

	stale, err = NeedsRebuild(ctx, idx, paths)
	require.NoError(t, err)
	assert.True(t, stale)

	require.NoError(t, EnsureFresh(ctx, idx, paths))

	stale, err = NeedsRebuild(ctx, idx, paths)
	require.NoError(t, err)
	assert.False(t, stale)
}
