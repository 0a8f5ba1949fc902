// Package lockfile arbitrates the daemon's exclusive-writer seat (spec
// §4.9) using a PID file, a liveness check on the referenced process, and
// an advisory flock as a belt-and-suspenders guard against two daemons
// racing to start against the same store directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrLocked is returned by Acquire when another live process already holds
// the daemon lock.
var ErrLocked = errors.New("lockfile: daemon lock already held by another process")

const (
	pidFileName = "daemon.pid"
)

// Lock represents a held advisory lock on a store directory. Release must
// be called to give up the lock and remove the PID file.
type Lock struct {
	dir  string
	file *os.File
}

// Acquire attempts to become the exclusive writer for the store directory
// at dir. It takes a non-blocking flock on a dedicated lock file and, once
// held, writes the current process ID to daemon.pid (spec §4.9 step 2).
// If the lock is already held by a live process, it returns ErrLocked.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: create %s: %w", dir, err)
	}

	lockPath := filepath.Join(dir, "daemon.lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", lockPath, err)
	}

	if err := flockExclusiveNonBlocking(f); err != nil {
		f.Close()
		return nil, ErrLocked
	}

	pid := os.Getpid()
	if err := os.WriteFile(filepath.Join(dir, pidFileName), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		flockUnlock(f)
		f.Close()
		return nil, fmt.Errorf("lockfile: write pid file: %w", err)
	}

	return &Lock{dir: dir, file: f}, nil
}

// Release unlocks and removes the PID file. It is safe to call on a nil
// *Lock (no-op), matching the pattern of deferred cleanup in the daemon's
// shutdown path (spec §4.9 step 6).
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	_ = os.Remove(filepath.Join(l.dir, pidFileName))
	err := flockUnlock(l.file)
	closeErr := l.file.Close()
	_ = os.Remove(l.file.Name())
	if err != nil {
		return err
	}
	return closeErr
}

// ReadPID reads the PID recorded in dir/daemon.pid. It returns 0, nil if
// the file does not exist.
func ReadPID(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("lockfile: read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("lockfile: parse pid file: %w", err)
	}
	return pid, nil
}

// IsDaemonRunning implements the liveness rule of spec §4.9: a daemon is
// considered running iff the socket file exists AND the PID file exists
// AND the process referenced by the PID file is alive. If the socket
// exists but the PID is stale, both files are removed and it reports not
// running.
func IsDaemonRunning(dir, socketPath string) (bool, error) {
	_, sockErr := os.Stat(socketPath)
	socketExists := sockErr == nil

	pid, err := ReadPID(dir)
	if err != nil {
		return false, err
	}

	switch {
	case socketExists && pid != 0 && isProcessRunning(pid):
		return true, nil
	case socketExists && (pid == 0 || !isProcessRunning(pid)):
		// Socket exists but PID is missing or stale: clean up both.
		_ = os.Remove(socketPath)
		_ = os.Remove(filepath.Join(dir, pidFileName))
		return false, nil
	default:
		return false, nil
	}
}
