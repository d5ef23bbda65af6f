package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chakrals/internal/engine/files"
	"chakrals/internal/shared/uri"
)

func collectBatch(t *testing.T, ch <-chan []files.FileChangeEvent) []files.FileChangeEvent {
	t.Helper()
	select {
	case batch := <-ch:
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a change batch")
		return nil
	}
}

func TestWatcherEmitsClassifiedBatches(t *testing.T) {
	tmpDir := t.TempDir()
	batches := make(chan []files.FileChangeEvent, 4)

	w, err := NewWatcher(50*time.Millisecond, []string{"node_modules"}, nil, func(batch []files.FileChangeEvent) {
		batches <- batch
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	srcPath := filepath.Join(tmpDir, "App.tsx")
	if err := os.WriteFile(srcPath, []byte("export const x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A file the classifier drops must never reach the batch.
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := collectBatch(t, batches)
	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %+v", batch)
	}
	if batch[0].URI != uri.FromPath(srcPath) || batch[0].Kind != files.ChangeCreated {
		t.Fatalf("unexpected event: %+v", batch[0])
	}

	if err := os.Remove(srcPath); err != nil {
		t.Fatal(err)
	}
	batch = collectBatch(t, batches)
	if len(batch) != 1 || batch[0].Kind != files.ChangeDeleted {
		t.Fatalf("expected a delete event, got %+v", batch)
	}
}

func TestWatcherSkipsExcludedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	excluded := filepath.Join(tmpDir, "node_modules")
	if err := os.Mkdir(excluded, 0o755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []files.FileChangeEvent, 4)
	w, err := NewWatcher(50*time.Millisecond, []string{"node_modules"}, nil, func(batch []files.FileChangeEvent) {
		batches <- batch
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(excluded, "index.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-batches:
		t.Fatalf("expected no batch from excluded dir, got %+v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestMergeKinds(t *testing.T) {
	cases := []struct {
		prev, next, want files.ChangeKind
	}{
		{0, files.ChangeCreated, files.ChangeCreated},
		{files.ChangeCreated, files.ChangeChanged, files.ChangeCreated},
		{files.ChangeCreated, files.ChangeDeleted, files.ChangeDeleted},
		{files.ChangeChanged, files.ChangeChanged, files.ChangeChanged},
		{files.ChangeChanged, files.ChangeDeleted, files.ChangeDeleted},
	}
	for _, tc := range cases {
		if got := mergeKinds(tc.prev, tc.next); got != tc.want {
			t.Errorf("mergeKinds(%v, %v) = %v, want %v", tc.prev, tc.next, got, tc.want)
		}
	}
}
