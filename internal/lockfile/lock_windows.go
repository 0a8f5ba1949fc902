//go:build windows

package lockfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// flockExclusiveNonBlocking takes an exclusive, fail-immediately LockFileEx
// lock on the first byte of f, the Windows counterpart of flock's
// LOCK_EX|LOCK_NB.
func flockExclusiveNonBlocking(f *os.File) error {
	return windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, new(windows.Overlapped))
}

// flockUnlock releases the lock taken by flockExclusiveNonBlocking.
func flockUnlock(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, new(windows.Overlapped))
}
