package main

import (
	"context"
	"fmt"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/lockfile"
	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/types"
)

// backend is the operation surface shared by the embedded (no daemon) and
// RPC (daemon) execution paths, so every subcommand's Run func is written
// once against this interface. Both implementations drive the same
// internal/store.Store semantics, satisfying spec §6's "observable effects
// identical" requirement.
type backend interface {
	Create(in store.CreateInput) (*types.Item, error)
	Get(id string) (*types.Item, error)
	Update(id string, in store.UpdateInput) (*types.Item, error)
	SetStatus(id string, status types.Status) (*types.Item, error)
	Close(id, reason string) (*types.Item, error)
	AddEdge(from, to string, kind types.EdgeKind) (*types.Edge, error)
	RemoveEdge(from, to string, kind types.EdgeKind) error
	List(filter types.WorkFilter) ([]*types.Item, error)
	Ready() ([]*types.Item, error)
	Blocked() ([]*types.Item, error)
	Events(filter cacheindex.EventFilter) ([]*types.Event, error)
	Compact() error
	Vacuum() error
	Close_() error // releases the backend's own resources (distinct from item Close)
}

// embeddedBackend drives a Store directly, for read-only commands and for
// any command run with --no-daemon.
type embeddedBackend struct {
	ctx context.Context
	s   *store.Store
}

func (b embeddedBackend) Create(in store.CreateInput) (*types.Item, error) { return b.s.Create(b.ctx, in) }
func (b embeddedBackend) Get(id string) (*types.Item, error)               { return b.s.Get(b.ctx, id) }
func (b embeddedBackend) Update(id string, in store.UpdateInput) (*types.Item, error) {
	return b.s.Update(b.ctx, id, in)
}
func (b embeddedBackend) SetStatus(id string, status types.Status) (*types.Item, error) {
	return b.s.SetStatus(b.ctx, id, status)
}
func (b embeddedBackend) Close(id, reason string) (*types.Item, error) {
	return b.s.Close(b.ctx, id, reason)
}
func (b embeddedBackend) AddEdge(from, to string, kind types.EdgeKind) (*types.Edge, error) {
	return b.s.AddEdge(b.ctx, from, to, kind)
}
func (b embeddedBackend) RemoveEdge(from, to string, kind types.EdgeKind) error {
	return b.s.RemoveEdge(b.ctx, from, to, kind)
}
func (b embeddedBackend) List(filter types.WorkFilter) ([]*types.Item, error) {
	return b.s.List(b.ctx, filter)
}
func (b embeddedBackend) Ready() ([]*types.Item, error)   { return b.s.Ready(b.ctx) }
func (b embeddedBackend) Blocked() ([]*types.Item, error) { return b.s.Blocked(b.ctx) }
func (b embeddedBackend) Events(filter cacheindex.EventFilter) ([]*types.Event, error) {
	return b.s.ListEvents(b.ctx, filter)
}
func (b embeddedBackend) Compact() error { return b.s.Compact(b.ctx) }
func (b embeddedBackend) Vacuum() error  { return b.s.Vacuum(b.ctx) }
func (b embeddedBackend) Close_() error  { return b.s.Close() }

// rpcBackend drives a daemon over internal/rpc.
type rpcBackend struct {
	c *rpc.Client
}

func (b rpcBackend) Create(in store.CreateInput) (*types.Item, error)  { return b.c.Create(in) }
func (b rpcBackend) Get(id string) (*types.Item, error)                { return b.c.Get(id) }
func (b rpcBackend) Update(id string, in store.UpdateInput) (*types.Item, error) {
	return b.c.Update(id, in)
}
func (b rpcBackend) SetStatus(id string, status types.Status) (*types.Item, error) {
	return b.c.SetStatus(id, status)
}
func (b rpcBackend) Close(id, reason string) (*types.Item, error) { return b.c.CloseItem(id, reason) }
func (b rpcBackend) AddEdge(from, to string, kind types.EdgeKind) (*types.Edge, error) {
	return b.c.AddEdge(from, to, kind)
}
func (b rpcBackend) RemoveEdge(from, to string, kind types.EdgeKind) error {
	return b.c.RemoveEdge(from, to, kind)
}
func (b rpcBackend) List(filter types.WorkFilter) ([]*types.Item, error) { return b.c.List(filter) }
func (b rpcBackend) Ready() ([]*types.Item, error)                       { return b.c.Ready() }
func (b rpcBackend) Blocked() ([]*types.Item, error)                     { return b.c.Blocked() }
func (b rpcBackend) Events(filter cacheindex.EventFilter) ([]*types.Event, error) {
	return b.c.Events(filter)
}
func (b rpcBackend) Compact() error { return b.c.Compact() }
func (b rpcBackend) Vacuum() error  { return b.c.Vacuum() }
func (b rpcBackend) Close_() error  { return b.c.Close() }

// openBackend resolves the execution path for root per spec §4.9 and §6:
// read-only commands embed the store directly when no daemon is already
// running (skipping the cost of starting one just to serve a read);
// mutating commands, and any command run while a daemon is already live,
// go through the daemon so every writer funnels through the single-writer
// seat. --no-daemon forces the embedded path regardless.
func openBackend(ctx context.Context, root string, readOnly, noDaemon bool) (backend, error) {
	layout := store.NewLayout(root)

	running, err := lockfile.IsDaemonRunning(layout.Dir(), layout.SocketPath())
	if err != nil {
		return nil, fmt.Errorf("engram: check daemon: %w", err)
	}

	if noDaemon || (readOnly && !running) {
		s, err := store.Open(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("engram: open store: %w", err)
		}
		return embeddedBackend{ctx: ctx, s: s}, nil
	}

	c, err := rpc.Connect(root, layout.SocketPath())
	if err != nil {
		return nil, fmt.Errorf("engram: connect to daemon: %w", err)
	}
	return rpcBackend{c: c}, nil
}
