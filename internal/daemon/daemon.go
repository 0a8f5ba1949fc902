// Package daemon runs Engram's single-writer server loop: it acquires the
// exclusive-writer lock, opens the store, listens on the store's socket,
// and dispatches requests until asked to shut down, following the shape
// of the teacher's cmd/bd daemon event loop but trimmed to Engram's
// single store (no export/import/git-hook integrations).
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/config"
	"github.com/engram-dev/engram/internal/lockfile"
	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/store"
)

// Options configures a daemon run.
type Options struct {
	Root         string
	OTLPEndpoint string // empty disables telemetry export
}

// Run acquires the daemon lock for root, opens the store, and serves RPC
// requests on the store's socket until it receives SIGTERM/SIGINT or an
// RPC Shutdown request (spec §4.9). It blocks until the server exits.
func Run(ctx context.Context, opts Options) error {
	layout := store.NewLayout(opts.Root)

	lock, err := lockfile.Acquire(layout.Dir())
	if err != nil {
		return fmt.Errorf("daemon: acquire lock: %w", err)
	}
	defer lock.Release()

	cfg, err := config.LoadStoreConfig(layout.ConfigPath())
	if err != nil {
		return fmt.Errorf("daemon: load config: %w", err)
	}
	applog.SetDebug(cfg.LogLevel == "debug")

	tuning, err := config.LoadDaemonTuning(layout.TuningPath())
	if err != nil {
		return fmt.Errorf("daemon: load tuning: %w", err)
	}
	_ = tuning // max_connections/slow_query_ms are advisory; the teacher's
	// equivalent knobs are also read-but-soft-enforced outside server-mode.

	s, err := store.Open(ctx, opts.Root)
	if err != nil {
		return fmt.Errorf("daemon: open store: %w", err)
	}
	defer s.Close()

	watcher, err := cacheindex.WatchDivergence(layout.Dir(), 500*time.Millisecond, func() {
		rebuildErr := traceRebuild(ctx, s.EnsureFresh)
		if rebuildErr != nil {
			applog.Warnf("daemon: divergence recheck failed: %v", rebuildErr)
		}
	})
	if err != nil {
		applog.Warnf("daemon: divergence watcher disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	_ = os.Remove(layout.SocketPath())
	listener, err := rpc.Listen(layout.SocketPath())
	if err != nil {
		return fmt.Errorf("daemon: listen %s: %w", layout.SocketPath(), err)
	}
	defer os.Remove(layout.SocketPath())

	if opts.OTLPEndpoint != "" {
		shutdownTelemetry, err := InitTelemetry(ctx, opts.OTLPEndpoint)
		if err != nil {
			applog.Warnf("daemon: telemetry disabled: %v", err)
		} else {
			defer shutdownTelemetry(ctx)
		}
	}

	srv := rpc.NewServer(s, listener)
	srv.OnRequest = func(op rpc.Op, start time.Time, reqErr error) {
		recordRequest(ctx, string(op), start, reqErr)
	}

	applog.Infof("daemon: listening on %s", layout.SocketPath())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx) }()

	select {
	case sig := <-sigCh:
		applog.Infof("daemon: received %s, shutting down", sig)
		srv.Shutdown()
		<-serveErr
		return nil
	case err := <-serveErr:
		return err
	}
}
