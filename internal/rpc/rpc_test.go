package rpc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/storeerr"
	"github.com/engram-dev/engram/internal/types"
)

func startTestServer(t *testing.T) (*Client, func()) {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()

	s, err := store.Open(ctx, root)
	require.NoError(t, err)

	socketPath := filepath.Join(t.TempDir(), "daemon.sock")
	listener, err := Listen(socketPath)
	require.NoError(t, err)

	srv := NewServer(s, listener)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	client, err := dial(socketPath)
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		srv.Shutdown()
		<-serveErr
		s.Close()
	}
	return client, cleanup
}

func TestClientServerCreateAndGet(t *testing.T) {
	client, cleanup := startTestServer(t)
	defer cleanup()

	it, err := client.Create(store.CreateInput{Title: "write tests", Priority: 1})
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, it.Status)

	got, err := client.Get(it.ID)
	require.NoError(t, err)
	assert.Equal(t, "write tests", got.Title)
}

func TestClientServerGetMissingReturnsWrappedNotFound(t *testing.T) {
	client, cleanup := startTestServer(t)
	defer cleanup()

	_, err := client.Get("eg-0000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeerr.ErrNotFound)
}

func TestClientServerAddEdgeAndReady(t *testing.T) {
	client, cleanup := startTestServer(t)
	defer cleanup()

	a, err := client.Create(store.CreateInput{Title: "a"})
	require.NoError(t, err)
	b, err := client.Create(store.CreateInput{Title: "b"})
	require.NoError(t, err)

	_, err = client.AddEdge(b.ID, a.ID, types.EdgeBlocks)
	require.NoError(t, err)

	ready, err := client.Ready()
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, a.ID, ready[0].ID)

	blocked, err := client.Blocked()
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, b.ID, blocked[0].ID)
}

func TestClientServerPing(t *testing.T) {
	client, cleanup := startTestServer(t)
	defer cleanup()

	require.NoError(t, client.Ping())
}

func TestDispatchGetMissingReturnsNotFoundTag(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := store.Open(ctx, root)
	require.NoError(t, err)
	defer s.Close()

	srv := NewServer(s, nil)
	req := NewRequest(OpGet)
	req.ItemID = "eg-0000000000"

	resp := srv.dispatch(ctx, req)
	assert.Equal(t, RespNotFound, resp.Tag)
	assert.Equal(t, "eg-0000000000", resp.ItemID)
	assert.Empty(t, resp.Error, "NotFound is a distinct tag, not folded into Error")
}

func TestClientServerSequentialPipelining(t *testing.T) {
	client, cleanup := startTestServer(t)
	defer cleanup()

	for i := 0; i < 20; i++ {
		_, err := client.Create(store.CreateInput{Title: "item"})
		require.NoError(t, err)
	}

	items, err := client.List(types.WorkFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 20)
}
