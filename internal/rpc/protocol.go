package rpc

import (
	"errors"

	"github.com/google/uuid"

	"github.com/engram-dev/engram/internal/cacheindex"
	"github.com/engram-dev/engram/internal/store"
	"github.com/engram-dev/engram/internal/types"
)

// ErrDaemonUnavailable is returned by endpoint discovery and by the client
// when no daemon is listening at the store's socket path.
var ErrDaemonUnavailable = errors.New("rpc: daemon unavailable")

// Op names a single request kind. The vocabulary mirrors the store's own
// operations plus the connection-level Flush/Shutdown/Ping the daemon adds.
type Op string

const (
	OpCreate     Op = "Create"
	OpUpdate     Op = "Update"
	OpSetStatus  Op = "SetStatus"
	OpClose      Op = "Close"
	OpAddEdge    Op = "AddEdge"
	OpRemoveEdge Op = "RemoveEdge"
	OpGet        Op = "Get"
	OpList       Op = "List"
	OpReady      Op = "Ready"
	OpBlocked    Op = "Blocked"
	OpEvents     Op = "Events"
	OpCompact    Op = "Compact"
	OpVacuum     Op = "Vacuum"
	OpFlush      Op = "Flush"
	OpShutdown   Op = "Shutdown"
	OpPing       Op = "Ping"
)

// RespTag names the shape of a Response's payload.
type RespTag string

const (
	RespItem     RespTag = "Item"
	RespItems    RespTag = "Items"
	RespEdge     RespTag = "Edge"
	RespEvents   RespTag = "Events"
	RespNotFound RespTag = "NotFound"
	RespOk       RespTag = "Ok"
	RespPong     RespTag = "Pong"
	RespError    RespTag = "Error"
)

// Request is one line of the daemon's line-delimited JSON protocol. Each
// connection pipelines requests sequentially: the client writes one
// Request and reads exactly one matching Response before sending the next.
type Request struct {
	ID uuid.UUID `json:"id"`
	Op Op        `json:"op"`

	ItemID string `json:"item_id,omitempty"` // Get, Update, SetStatus, Close
	From   string `json:"from,omitempty"`    // AddEdge, RemoveEdge
	To     string `json:"to,omitempty"`      // AddEdge, RemoveEdge

	Create *store.CreateInput `json:"create,omitempty"`
	Update *store.UpdateInput `json:"update,omitempty"`

	Status types.Status   `json:"status,omitempty"` // SetStatus
	Reason string         `json:"reason,omitempty"` // Close
	Kind   types.EdgeKind `json:"kind,omitempty"`   // AddEdge, RemoveEdge

	Filter types.WorkFilter        `json:"filter,omitempty"` // List
	Events *cacheindex.EventFilter `json:"events,omitempty"` // Events
}

// NewRequest stamps a fresh request ID for op.
func NewRequest(op Op) Request {
	return Request{ID: uuid.New(), Op: op}
}

// Response is the daemon's reply to one Request, correlated by ID.
type Response struct {
	ID  uuid.UUID `json:"id"`
	Tag RespTag   `json:"tag"`

	Item  *types.Item   `json:"item,omitempty"`
	Items []*types.Item `json:"items,omitempty"`
	Edge  *types.Edge   `json:"edge,omitempty"`

	Events []*types.Event `json:"events,omitempty"`

	// ItemID carries the requested id on a NotFound response, since there
	// is no Item to hang it off of.
	ItemID string `json:"item_id,omitempty"`

	Error string `json:"error,omitempty"`
}

// errorResponse builds an Error-tagged response carrying err's message.
// The daemon never serializes Go error values directly: only their text
// crosses the wire, so sentinel comparisons on the client side go through
// errClassOf instead of errors.Is against the original error.
func errorResponse(id uuid.UUID, err error) Response {
	return Response{ID: id, Tag: RespError, Error: err.Error()}
}

func okResponse(id uuid.UUID) Response {
	return Response{ID: id, Tag: RespOk}
}

func pongResponse(id uuid.UUID) Response {
	return Response{ID: id, Tag: RespPong}
}

func itemResponse(id uuid.UUID, it *types.Item) Response {
	return Response{ID: id, Tag: RespItem, Item: it}
}

func itemsResponse(id uuid.UUID, items []*types.Item) Response {
	return Response{ID: id, Tag: RespItems, Items: items}
}

func edgeResponse(id uuid.UUID, e *types.Edge) Response {
	return Response{ID: id, Tag: RespEdge, Edge: e}
}

func eventsResponse(id uuid.UUID, events []*types.Event) Response {
	return Response{ID: id, Tag: RespEvents, Events: events}
}

// notFoundResponse builds a NotFound-tagged response for itemID, the
// distinct branch the wire protocol reserves for storeerr.ErrNotFound
// rather than folding it into the generic Error tag.
func notFoundResponse(id uuid.UUID, itemID string) Response {
	return Response{ID: id, Tag: RespNotFound, ItemID: itemID}
}
