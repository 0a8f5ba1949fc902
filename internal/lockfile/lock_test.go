package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	pid, err := ReadPID(dir)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("got pid %d, want %d", pid, os.Getpid())
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, pidFileName)); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed after Release, stat err = %v", err)
	}
}

func TestAcquireTwiceFails(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer lock.Release()

	if _, err := Acquire(dir); err != ErrLocked {
		t.Fatalf("second Acquire: got %v, want ErrLocked", err)
	}
}

func TestIsDaemonRunningNoFiles(t *testing.T) {
	dir := t.TempDir()
	running, err := IsDaemonRunning(dir, filepath.Join(dir, "daemon.sock"))
	if err != nil {
		t.Fatalf("IsDaemonRunning: %v", err)
	}
	if running {
		t.Fatal("expected not running with no socket or pid file")
	}
}

func TestIsDaemonRunningStaleCleansUp(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "daemon.sock")
	if err := os.WriteFile(sockPath, nil, 0o644); err != nil {
		t.Fatalf("WriteFile socket: %v", err)
	}
	// No PID file written: stale socket.
	running, err := IsDaemonRunning(dir, sockPath)
	if err != nil {
		t.Fatalf("IsDaemonRunning: %v", err)
	}
	if running {
		t.Fatal("expected not running with stale socket and no pid file")
	}
	if _, err := os.Stat(sockPath); !os.IsNotExist(err) {
		t.Fatal("stale socket should have been removed")
	}
}
