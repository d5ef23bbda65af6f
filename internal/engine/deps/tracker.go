package deps

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"chakrals/internal/engine/files"
	"chakrals/internal/shared/observability"
	"chakrals/internal/shared/uri"
)

// Tracker owns the per-scope "has dependency" map. A scope is a workspace
// folder (or any directory holding a manifest). Lookups are total: an
// unknown scope answers false, never "unknown".
type Tracker struct {
	mu           sync.RWMutex
	scopes       map[string]bool // cleaned absolute dir path -> hasDependency
	manifestName string
	packages     []string
}

func NewTracker(manifestName string, packages []string) *Tracker {
	return &Tracker{
		scopes:       make(map[string]bool),
		manifestName: manifestName,
		packages:     packages,
	}
}

// Initialize seeds the map from the workspace folders reported by the
// client. A folder without a readable manifest starts at false.
func (t *Tracker) Initialize(folderURIs []string) {
	for _, folderURI := range folderURIs {
		dir, err := uri.ToPath(folderURI)
		if err != nil {
			slog.Warn("skipping workspace folder with unusable uri", "uri", folderURI, "error", err)
			continue
		}
		t.refreshScope(filepath.Clean(dir))
	}
}

// UpdateFromFileChanges re-derives scope flags from manifest change
// events. Order within the batch is preserved, so the last event for a
// scope decides its state. Read or parse failures leave the previous
// flag untouched.
func (t *Tracker) UpdateFromFileChanges(events []files.FileChangeEvent) {
	for _, ev := range events {
		path, err := uri.ToPath(ev.URI)
		if err != nil {
			slog.Warn("manifest event with unusable uri", "uri", ev.URI, "error", err)
			continue
		}
		if !strings.EqualFold(filepath.Base(path), t.manifestName) {
			// .json file that is not a dependency manifest (tsconfig etc).
			continue
		}

		scope := filepath.Dir(path)
		if ev.Kind == files.ChangeDeleted {
			t.setScope(scope, false)
			slog.Debug("manifest deleted, scope reset", "scope", scope)
			continue
		}
		t.refreshScope(scope)
	}
}

// HasDependency resolves the URI to its nearest enclosing scope and
// returns that scope's flag. Total over all URIs: anything outside every
// known scope answers false.
func (t *Tracker) HasDependency(docURI string) bool {
	path, err := uri.ToPath(docURI)
	if err != nil {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	dir := filepath.Dir(filepath.Clean(path))
	for {
		if flag, ok := t.scopes[dir]; ok {
			return flag
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// Remove forgets a scope entirely, used when the editor reports the
// workspace folder removed.
func (t *Tracker) Remove(folderURI string) {
	dir, err := uri.ToPath(folderURI)
	if err != nil {
		return
	}

	t.mu.Lock()
	delete(t.scopes, filepath.Clean(dir))
	size := len(t.scopes)
	t.mu.Unlock()

	observability.TrackedScopes.Set(float64(size))
}

// ScopeCount reports the number of known scopes, for the health surface.
func (t *Tracker) ScopeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.scopes)
}

// refreshScope re-reads the scope's manifest and updates its flag. A
// missing manifest means false; an unreadable or unparsable one keeps
// the previous flag (fail-soft).
func (t *Tracker) refreshScope(scope string) {
	manifestPath := filepath.Join(scope, t.manifestName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.setScope(scope, false)
			return
		}
		slog.Warn("manifest unreadable, keeping previous state", "path", manifestPath, "error", err)
		t.ensureScope(scope)
		return
	}

	declares, err := manifestDeclares(data, t.packages)
	if err != nil {
		slog.Warn("manifest unparsable, keeping previous state", "path", manifestPath, "error", err)
		t.ensureScope(scope)
		return
	}
	t.setScope(scope, declares)
}

func (t *Tracker) setScope(scope string, flag bool) {
	t.mu.Lock()
	t.scopes[scope] = flag
	size := len(t.scopes)
	t.mu.Unlock()

	observability.TrackedScopes.Set(float64(size))
}

// ensureScope registers the scope without disturbing an existing flag.
func (t *Tracker) ensureScope(scope string) {
	t.mu.Lock()
	if _, ok := t.scopes[scope]; !ok {
		t.scopes[scope] = false
	}
	size := len(t.scopes)
	t.mu.Unlock()

	observability.TrackedScopes.Set(float64(size))
}
