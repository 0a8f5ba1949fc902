// Package storeerr defines the sentinel errors shared across the record
// model, the cache index, and the store API, following the
// errors.New/fmt.Errorf(%w)/errors.Is idiom used throughout the cache layer.
package storeerr

import "errors"

var (
	// ErrValidation indicates a field failed one of the §3 constraints.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates no item exists with the given id.
	ErrNotFound = errors.New("not found")

	// ErrSelfReferential indicates an edge operation with from_id == to_id.
	ErrSelfReferential = errors.New("self-referential edge")

	// ErrCycle indicates adding an edge would create a cycle in the
	// blocking subgraph.
	ErrCycle = errors.New("cycle detected")

	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCorrupt indicates an unparseable log line was encountered; callers
	// treat this as recoverable (log and skip), never fatal.
	ErrCorrupt = errors.New("corrupt record")
)
