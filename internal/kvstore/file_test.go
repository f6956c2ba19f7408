package kvstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)

	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set("widget_position", `{"x":10,"y":20}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get("widget_position")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"x":10,"y":20}` {
		t.Fatalf("unexpected value: %s", got)
	}

	// a fresh store over the same file sees the persisted value
	again := NewFileStore(path)
	got, err = again.Get("widget_position")
	if err != nil || got != `{"x":10,"y":20}` {
		t.Fatalf("expected persisted value, got %q err=%v", got, err)
	}
}

func TestFileStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewFileStore(path)
	if _, err := s.Get("anything"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on corrupt file, got %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("set over corrupt file: %v", err)
	}
}
