package idgen

import (
	"regexp"
	"testing"
	"time"

	"github.com/engram-dev/engram/internal/types"
)

var idPattern = regexp.MustCompile(`^eg-[0-9a-f]{10}$`)

func TestNewMatchesShape(t *testing.T) {
	id, err := New("Fix login", time.Now())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(id) != types.IDLength {
		t.Fatalf("got length %d, want %d", len(id), types.IDLength)
	}
	if !idPattern.MatchString(id) {
		t.Fatalf("id %q does not match %s", id, idPattern.String())
	}
}

func TestNewIsRandomized(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	a, err := New("Fix login", ts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("Fix login", ts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a == b {
		t.Fatalf("two calls with identical inputs produced the same id: %s", a)
	}
}
