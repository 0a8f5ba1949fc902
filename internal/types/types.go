// Package types defines the record model shared by the log, the cache, and
// the store: items, edges, events, and their field-level invariants.
package types

import (
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/engram-dev/engram/internal/storeerr"
)

// Status is an item's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusClosed:
		return true
	default:
		return false
	}
}

// EdgeKind is the type of a directed relation between two items.
type EdgeKind string

const (
	EdgeBlocks      EdgeKind = "blocks"
	EdgeParentChild EdgeKind = "parent_child"
	EdgeRelated     EdgeKind = "related"
)

// Valid reports whether k is one of the three edge kinds.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeBlocks, EdgeParentChild, EdgeRelated:
		return true
	default:
		return false
	}
}

// Blocking reports whether edges of this kind participate in the DAG check
// and the readiness predicate.
func (k EdgeKind) Blocking() bool {
	return k == EdgeBlocks || k == EdgeParentChild
}

const (
	// IDPrefix is the fixed prefix of every item ID.
	IDPrefix = "eg-"
	// IDLength is the total length of an item ID, including the prefix.
	IDLength = 13

	// MinTitleLen and MaxTitleLen bound the title field.
	MinTitleLen = 1
	MaxTitleLen = 500

	// MinPriority and MaxPriority bound the priority field, 0 = highest.
	MinPriority = 0
	MaxPriority = 4
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Item is the unit of work tracked by the store.
type Item struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"status"`
	Priority     int        `json:"priority"`
	Labels       []string   `json:"labels,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CloseReason  string     `json:"close_reason,omitempty"`
}

// Validate checks the field constraints from spec §3. It does not check
// cross-item invariants (those belong to the store and graph engine).
func (it *Item) Validate() error {
	if len(it.ID) != IDLength {
		return fmt.Errorf("%w: id %q must be %d characters", storeerr.ErrValidation, it.ID, IDLength)
	}
	titleLen := len([]rune(it.Title))
	if titleLen < MinTitleLen || titleLen > MaxTitleLen {
		return fmt.Errorf("%w: title length %d out of range [%d,%d]", storeerr.ErrValidation, titleLen, MinTitleLen, MaxTitleLen)
	}
	for _, r := range it.Title {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: title contains control character", storeerr.ErrValidation)
		}
	}
	if !it.Status.Valid() {
		return fmt.Errorf("%w: status %q is not a recognized status", storeerr.ErrValidation, it.Status)
	}
	if it.Priority < MinPriority || it.Priority > MaxPriority {
		return fmt.Errorf("%w: priority %d out of range [%d,%d]", storeerr.ErrValidation, it.Priority, MinPriority, MaxPriority)
	}
	for _, l := range it.Labels {
		if !labelPattern.MatchString(l) {
			return fmt.Errorf("%w: label %q must match %s", storeerr.ErrValidation, l, labelPattern.String())
		}
	}
	if it.UpdatedAt.Before(it.CreatedAt) {
		return fmt.Errorf("%w: updated_at precedes created_at", storeerr.ErrValidation)
	}
	closedSet := it.ClosedAt != nil
	if closedSet != (it.Status == StatusClosed) {
		return fmt.Errorf("%w: closed_at must be set iff status is closed", storeerr.ErrValidation)
	}
	return nil
}

// Edge is a directed, typed relation from FromID to ToID.
type Edge struct {
	FromID    string   `json:"from_id"`
	ToID      string   `json:"to_id"`
	Kind      EdgeKind `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Deleted   bool     `json:"deleted,omitempty"`
}

// Triple returns the unique key of the edge: (from, to, kind).
func (e *Edge) Triple() [3]string {
	return [3]string{e.FromID, e.ToID, string(e.Kind)}
}

// Validate checks the field constraints for a new edge, excluding cycle and
// existence checks which require the cache (graph engine's job).
func (e *Edge) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: edge kind %q is not recognized", storeerr.ErrValidation, e.Kind)
	}
	if e.FromID == e.ToID {
		return fmt.Errorf("%w: edge is self-referential", storeerr.ErrSelfReferential)
	}
	return nil
}

// Event is a timestamped observability record with a free-form payload.
type Event struct {
	Kind       string          `json:"kind"`
	SourceTask string          `json:"source_task,omitempty"`
	TargetTask string          `json:"target_task,omitempty"`
	Payload    map[string]any  `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// WorkFilter narrows a list/ready/blocked query. Zero value means "no filter".
type WorkFilter struct {
	Status Status
}
