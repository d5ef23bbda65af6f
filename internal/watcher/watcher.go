// Package watcher provides a server-side fallback for clients that do
// not push workspace/didChangeWatchedFiles batches: it watches the
// workspace folders itself and emits the same kind of change batches.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"chakrals/internal/engine/files"
	"chakrals/internal/shared/uri"
)

type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	onBatch      func([]files.FileChangeEvent)
	callbackMu   sync.Mutex

	pending   map[string]files.ChangeKind
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(debounce time.Duration, excludeDirs, excludeFiles []string, onBatch func([]files.FileChangeEvent)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onBatch:   onBatch,
		pending:   make(map[string]files.ChangeKind),
	}

	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}

	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}

	return w, nil
}

// Watch registers the roots recursively and starts the event loop.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}
			// Only watched categories flow downstream.
			if files.Classify(uri.FromPath(event.Name)).Category == files.CategoryOther {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				w.scheduleChange(event.Name, files.ChangeCreated)
			case event.Op&fsnotify.Write == fsnotify.Write:
				w.scheduleChange(event.Name, files.ChangeChanged)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.scheduleChange(event.Name, files.ChangeDeleted)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string, kind files.ChangeKind) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = mergeKinds(w.pending[path], kind)

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

// mergeKinds collapses rapid-fire events for one path into the kind the
// client would have observed: a create followed by writes is still a
// create, and a delete wins over everything before it.
func mergeKinds(prev, next files.ChangeKind) files.ChangeKind {
	if prev == 0 {
		return next
	}
	if next == files.ChangeDeleted {
		return files.ChangeDeleted
	}
	if prev == files.ChangeCreated {
		return files.ChangeCreated
	}
	return next
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	batch := make([]files.FileChangeEvent, 0, len(w.pending))
	for path, kind := range w.pending {
		batch = append(batch, files.FileChangeEvent{URI: uri.FromPath(path), Kind: kind})
	}
	w.pending = make(map[string]files.ChangeKind)
	w.pendingMu.Unlock()

	if len(batch) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onBatch(batch)
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}
