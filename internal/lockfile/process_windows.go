//go:build windows

package lockfile

import "os"

// isProcessRunning checks whether a process with the given PID is alive by
// attempting to find its handle: on Windows os.FindProcess opens a handle
// to the process and fails when no process has that PID, so a successful
// lookup is taken to mean the process is running. No signal is sent.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil || proc == nil {
		return false
	}
	return true
}
