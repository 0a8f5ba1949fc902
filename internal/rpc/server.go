package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engram-dev/engram/internal/applog"
	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/storeerr"
	"github.com/engram-dev/engram/internal/types"
)

// Server accepts connections on a listener and dispatches each line of
// incoming requests to a Store. Mutations serialize on the Store's own
// mutex and queries on the cache index's lock (internal/store.Store is
// already safe for concurrent use), so the server itself holds no
// additional locking beyond tracking live connections for a clean Shutdown.
type Server struct {
	store    *store.Store
	listener net.Listener

	mu         sync.Mutex
	conns      map[net.Conn]struct{}
	shutdownCh chan struct{}

	// OnRequest, if set, is called after every dispatched request with its
	// op, start time and outcome, letting the daemon record telemetry
	// without the protocol layer depending on internal/daemon.
	OnRequest func(op Op, start time.Time, err error)
}

// NewServer wraps listener, dispatching every accepted connection's
// requests to s.
func NewServer(s *store.Store, listener net.Listener) *Server {
	return &Server{
		store:      s,
		listener:   listener,
		conns:      make(map[net.Conn]struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Serve accepts connections until Shutdown is called or the listener
// errors. It returns nil on a clean shutdown.
func (srv *Server) Serve(ctx context.Context) error {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			select {
			case <-srv.shutdownCh:
				return nil
			default:
				return err
			}
		}
		srv.trackConn(conn)
		go srv.handleConn(ctx, conn)
	}
}

func (srv *Server) trackConn(conn net.Conn) {
	srv.mu.Lock()
	srv.conns[conn] = struct{}{}
	srv.mu.Unlock()
}

func (srv *Server) untrackConn(conn net.Conn) {
	srv.mu.Lock()
	delete(srv.conns, conn)
	srv.mu.Unlock()
}

// Shutdown stops accepting new connections, closes all live ones, and
// unblocks Serve (spec §4.9 step 6).
func (srv *Server) Shutdown() {
	close(srv.shutdownCh)
	_ = srv.listener.Close()

	srv.mu.Lock()
	defer srv.mu.Unlock()
	for conn := range srv.conns {
		_ = conn.Close()
	}
}

func (srv *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer srv.untrackConn(conn)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var req Request
			if jsonErr := json.Unmarshal(line, &req); jsonErr != nil {
				applog.Warnf("rpc: malformed request: %v", jsonErr)
				return
			}
			start := time.Now()
			resp := srv.dispatch(ctx, req)
			if srv.OnRequest != nil {
				var reqErr error
				switch resp.Tag {
				case RespError:
					reqErr = errors.New(resp.Error)
				case RespNotFound:
					reqErr = fmt.Errorf("%w: %s", storeerr.ErrNotFound, resp.ItemID)
				}
				srv.OnRequest(req.Op, start, reqErr)
			}
			data, marshalErr := json.Marshal(resp)
			if marshalErr != nil {
				applog.Warnf("rpc: marshal response: %v", marshalErr)
				return
			}
			data = append(data, '\n')
			if _, writeErr := conn.Write(data); writeErr != nil {
				return
			}
			if req.Op == OpShutdown {
				go srv.Shutdown()
			}
		}
		if err != nil {
			return
		}
	}
}

func (srv *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Op {
	case OpPing:
		return pongResponse(req.ID)

	case OpCreate:
		in := store.CreateInput{}
		if req.Create != nil {
			in = *req.Create
		}
		it, err := srv.store.Create(ctx, in)
		return respondItem(req.ID, "", it, err)

	case OpGet:
		it, err := srv.store.Get(ctx, req.ItemID)
		return respondItem(req.ID, req.ItemID, it, err)

	case OpUpdate:
		in := store.UpdateInput{}
		if req.Update != nil {
			in = *req.Update
		}
		it, err := srv.store.Update(ctx, req.ItemID, in)
		return respondItem(req.ID, req.ItemID, it, err)

	case OpSetStatus:
		it, err := srv.store.SetStatus(ctx, req.ItemID, req.Status)
		return respondItem(req.ID, req.ItemID, it, err)

	case OpClose:
		it, err := srv.store.Close(ctx, req.ItemID, req.Reason)
		return respondItem(req.ID, req.ItemID, it, err)

	case OpAddEdge:
		e, err := srv.store.AddEdge(ctx, req.From, req.To, req.Kind)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return edgeResponse(req.ID, e)

	case OpRemoveEdge:
		if err := srv.store.RemoveEdge(ctx, req.From, req.To, req.Kind); err != nil {
			return errorResponse(req.ID, err)
		}
		return okResponse(req.ID)

	case OpList:
		items, err := srv.store.List(ctx, req.Filter)
		return respondItems(req.ID, items, err)

	case OpReady:
		items, err := srv.store.Ready(ctx)
		return respondItems(req.ID, items, err)

	case OpBlocked:
		items, err := srv.store.Blocked(ctx)
		return respondItems(req.ID, items, err)

	case OpEvents:
		filter := cacheindex.EventFilter{}
		if req.Events != nil {
			filter = *req.Events
		}
		events, err := srv.store.ListEvents(ctx, filter)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return eventsResponse(req.ID, events)

	case OpCompact:
		if err := srv.store.Compact(ctx); err != nil {
			return errorResponse(req.ID, err)
		}
		return okResponse(req.ID)

	case OpVacuum:
		if err := srv.store.Vacuum(ctx); err != nil {
			return errorResponse(req.ID, err)
		}
		return okResponse(req.ID)

	case OpFlush:
		// The store fsyncs every append; Flush is a no-op acknowledgement
		// for clients that want a round trip confirming the daemon is
		// caught up.
		return okResponse(req.ID)

	case OpShutdown:
		return okResponse(req.ID)

	default:
		return errorResponse(req.ID, errors.New("rpc: unknown op "+string(req.Op)))
	}
}

func respondItem(id uuid.UUID, itemID string, it *types.Item, err error) Response {
	if err != nil {
		if errors.Is(err, storeerr.ErrNotFound) {
			return notFoundResponse(id, itemID)
		}
		return errorResponse(id, err)
	}
	return itemResponse(id, it)
}

func respondItems(id uuid.UUID, items []*types.Item, err error) Response {
	if err != nil {
		return errorResponse(id, err)
	}
	return itemsResponse(id, items)
}
