package cacheindex

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const busyRetryMaxElapsed = 2 * time.Second

func newBusyRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = busyRetryMaxElapsed
	return bo
}

// isBusyError reports whether err looks like a SQLite busy/locked
// condition. The cache index runs with SetMaxOpenConns(1), so contention
// only arises from a concurrent external reader (sqlite3 CLI, backup tool)
// holding a shared lock briefly.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "database is locked") || strings.Contains(s, "busy")
}

// withBusyRetry retries op with exponential backoff while it fails with a
// transient SQLITE_BUSY/SQLITE_LOCKED condition.
func withBusyRetry(ctx context.Context, op func() error) error {
	bo := newBusyRetryBackoff()
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}
