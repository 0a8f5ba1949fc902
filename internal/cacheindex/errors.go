package cacheindex

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/engram-dev/engram/internal/storeerr"
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to storeerr.ErrNotFound for consistent error handling
// across the store layer.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storeerr.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func wrapDBErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}
