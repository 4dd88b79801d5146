package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.fsdb")
	if err := os.WriteFile(path, []byte("initial"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-w.Events:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a write event within 2s")
	}
}

func TestNewFailsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.fsdb")
	if _, err := New(path, nil); err == nil {
		t.Fatalf("expected an error watching a nonexistent path")
	}
}

func TestCloseStopsDeliveringEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.fsdb")
	if err := os.WriteFile(path, []byte("initial"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, ok := <-w.Events:
		if ok {
			t.Fatalf("expected Events to be closed, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Events channel to close promptly after Close")
	}
}
