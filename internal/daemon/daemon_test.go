package daemon

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/store"
)

func waitForSocket(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("socket %s did not appear within %s", path, timeout)
}

func TestRunServesUntilShutdown(t *testing.T) {
	root := t.TempDir()
	layout := store.NewLayout(root)

	runErr := make(chan error, 1)
	go func() { runErr <- Run(context.Background(), Options{Root: root}) }()

	waitForSocket(t, layout.SocketPath(), 5*time.Second)

	client, err := rpc.Connect(root, layout.SocketPath())
	require.NoError(t, err)

	require.NoError(t, client.Ping())

	it, err := client.Create(store.CreateInput{Title: "daemon lifecycle"})
	require.NoError(t, err)
	assert.Equal(t, "daemon lifecycle", it.Title)

	require.NoError(t, client.Shutdown())
	client.Close()

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit after Shutdown")
	}

	_, err = os.Stat(layout.SocketPath())
	assert.True(t, os.IsNotExist(err), "daemon should remove its socket on exit")
}

func TestRunRejectsSecondInstanceAgainstSameRoot(t *testing.T) {
	root := t.TempDir()
	layout := store.NewLayout(root)

	runErr := make(chan error, 1)
	go func() { runErr <- Run(context.Background(), Options{Root: root}) }()
	waitForSocket(t, layout.SocketPath(), 5*time.Second)

	err := Run(context.Background(), Options{Root: root})
	require.Error(t, err)

	client, err := rpc.Connect(root, layout.SocketPath())
	require.NoError(t, err)
	require.NoError(t, client.Shutdown())
	client.Close()

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit after Shutdown")
	}
}
