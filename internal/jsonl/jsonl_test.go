package jsonl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndForEachLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.jsonl")

	if err := Append(path, []byte(`{"id":"eg-0000000001"}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, []byte(`{"id":"eg-0000000002"}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var lines []string
	err := ForEachLine(path, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachLine: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}
}

func TestForEachLineMissingFile(t *testing.T) {
	err := ForEachLine(filepath.Join(t.TempDir(), "missing.jsonl"), func([]byte) error {
		t.Fatal("fn should not be called for a missing file")
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachLine on missing file: %v", err)
	}
}

func TestForEachLineSkipsTruncatedTrailingLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.jsonl")

	data := "{\"id\":\"eg-0000000001\"}\n{\"id\":\"eg-000000000" // no trailing newline
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var lines []string
	err := ForEachLine(path, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachLine: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (truncated trailing line should be skipped): %v", len(lines), lines)
	}
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edges.jsonl")
	for i := 0; i < 3; i++ {
		if err := Append(path, []byte(`{}`)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	n, err := CountLines(path)
	if err != nil {
		t.Fatalf("CountLines: %v", err)
	}
	if n != 3 {
		t.Fatalf("got %d, want 3", n)
	}
}
