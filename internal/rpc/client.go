package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/lockfile"
	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/storeerr"
	"github.com/engram-dev/engram/internal/types"
)

const dialTimeout = 500 * time.Millisecond

// Client is a connection to a running daemon, pipelining requests one at a
// time over a single long-lived socket.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Connect dials the daemon listening at root's socket path. If no daemon
// appears to be running there, it spawns one (the current executable's
// "daemon --root <root>" subcommand, detached) and retries the dial a few
// times before giving up, mirroring
// the teacher's daemon auto-start behavior for the embedded-vs-RPC CLI path.
func Connect(root, socketPath string) (*Client, error) {
	if c, err := dial(socketPath); err == nil {
		return c, nil
	}

	dir := storeDirOf(root)
	running, err := lockfile.IsDaemonRunning(dir, socketPath)
	if err != nil {
		return nil, fmt.Errorf("rpc: check daemon liveness: %w", err)
	}
	if !running {
		if err := spawnDaemon(root); err != nil {
			return nil, fmt.Errorf("rpc: start daemon: %w", err)
		}
	}

	var lastErr error
	for i := 0; i < 10; i++ {
		time.Sleep(100 * time.Millisecond)
		if c, err := dial(socketPath); err == nil {
			return c, nil
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, lastErr)
}

func dial(socketPath string) (*Client, error) {
	endpoint, err := DiscoverEndpoint(socketPath)
	if err != nil {
		return nil, err
	}
	conn, err := dialRPC(endpoint, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

func spawnDaemon(root string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "daemon", "--root", root)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	return cmd.Start()
}

func storeDirOf(root string) string {
	return store.NewLayout(root).Dir()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip writes req and reads the one response correlated to it.
func (c *Client) roundTrip(req Request) (Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("rpc: marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("rpc: write request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("rpc: read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("rpc: unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("rpc: response id %s does not match request id %s", resp.ID, req.ID)
	}
	switch resp.Tag {
	case RespError:
		return Response{}, errClassOf(resp.Error)
	case RespNotFound:
		return Response{}, fmt.Errorf("rpc: %s: %w", resp.ItemID, storeerr.ErrNotFound)
	}
	return resp, nil
}

// errClassOf maps an error's wire-carried message back onto the shared
// sentinel errors where recognized, so callers can still use errors.Is
// against storeerr after a round trip through JSON.
func errClassOf(msg string) error {
	for _, sentinel := range []error{
		storeerr.ErrNotFound,
		storeerr.ErrValidation,
		storeerr.ErrSelfReferential,
		storeerr.ErrCycle,
		storeerr.ErrInvalidTransition,
		storeerr.ErrCorrupt,
	} {
		if strings.Contains(msg, sentinel.Error()) {
			return fmt.Errorf("%s: %w", msg, sentinel)
		}
	}
	return fmt.Errorf("rpc: %s", msg)
}

func (c *Client) Create(in store.CreateInput) (*types.Item, error) {
	req := NewRequest(OpCreate)
	req.Create = &in
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) Get(id string) (*types.Item, error) {
	req := NewRequest(OpGet)
	req.ItemID = id
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) Update(id string, in store.UpdateInput) (*types.Item, error) {
	req := NewRequest(OpUpdate)
	req.ItemID = id
	req.Update = &in
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) SetStatus(id string, status types.Status) (*types.Item, error) {
	req := NewRequest(OpSetStatus)
	req.ItemID = id
	req.Status = status
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) CloseItem(id, reason string) (*types.Item, error) {
	req := NewRequest(OpClose)
	req.ItemID = id
	req.Reason = reason
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (c *Client) AddEdge(from, to string, kind types.EdgeKind) (*types.Edge, error) {
	req := NewRequest(OpAddEdge)
	req.From, req.To, req.Kind = from, to, kind
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Edge, nil
}

func (c *Client) RemoveEdge(from, to string, kind types.EdgeKind) error {
	req := NewRequest(OpRemoveEdge)
	req.From, req.To, req.Kind = from, to, kind
	_, err := c.roundTrip(req)
	return err
}

func (c *Client) List(filter types.WorkFilter) ([]*types.Item, error) {
	req := NewRequest(OpList)
	req.Filter = filter
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Ready() ([]*types.Item, error) {
	resp, err := c.roundTrip(NewRequest(OpReady))
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Blocked() ([]*types.Item, error) {
	resp, err := c.roundTrip(NewRequest(OpBlocked))
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Events(filter cacheindex.EventFilter) ([]*types.Event, error) {
	req := NewRequest(OpEvents)
	req.Events = &filter
	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *Client) Compact() error {
	_, err := c.roundTrip(NewRequest(OpCompact))
	return err
}

func (c *Client) Vacuum() error {
	_, err := c.roundTrip(NewRequest(OpVacuum))
	return err
}

func (c *Client) Flush() error {
	_, err := c.roundTrip(NewRequest(OpFlush))
	return err
}

// Shutdown asks the daemon to stop accepting new connections, finish
// in-flight requests, and exit (spec §4.9 step 6).
func (c *Client) Shutdown() error {
	_, err := c.roundTrip(NewRequest(OpShutdown))
	return err
}

func (c *Client) Ping() error {
	resp, err := c.roundTrip(NewRequest(OpPing))
	if err != nil {
		return err
	}
	if resp.Tag != RespPong {
		return fmt.Errorf("rpc: ping: unexpected response tag %s", resp.Tag)
	}
	return nil
}
