package deps

import (
	"os"
	"path/filepath"
	"testing"

	"chakrals/internal/engine/files"
	"chakrals/internal/shared/uri"
)

const manifestWithChakra = `{
  "name": "demo",
  "dependencies": {
    "@chakra-ui/react": "^2.8.0",
    "react": "^18.2.0"
  }
}`

const manifestWithoutChakra = `{
  "name": "demo",
  "dependencies": {
    "react": "^18.2.0"
  }
}`

func newTestTracker() *Tracker {
	return NewTracker("package.json", []string{"@chakra-ui/react", "@chakra-ui/core"})
}

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitializeDetectsDependency(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, manifestWithChakra)

	tr := newTestTracker()
	tr.Initialize([]string{uri.FromPath(dir)})

	srcURI := uri.FromPath(filepath.Join(dir, "src", "App.tsx"))
	if !tr.HasDependency(srcURI) {
		t.Error("expected dependency for file under initialized folder")
	}
}

func TestInitializeWithoutManifest(t *testing.T) {
	dir := t.TempDir()

	tr := newTestTracker()
	tr.Initialize([]string{uri.FromPath(dir)})

	if tr.HasDependency(uri.FromPath(filepath.Join(dir, "index.js"))) {
		t.Error("expected false for folder without manifest")
	}
	if tr.ScopeCount() != 1 {
		t.Errorf("expected scope to be registered, count=%d", tr.ScopeCount())
	}
}

func TestHasDependencyIsTotal(t *testing.T) {
	tr := newTestTracker()

	for _, u := range []string{
		uri.FromPath("/nowhere/special/app.tsx"),
		"file:///",
		"not a uri at all",
		"untitled:Untitled-1",
	} {
		if tr.HasDependency(u) {
			t.Errorf("expected false for %q", u)
		}
	}
}

func TestUpdateFromFileChanges(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, manifestWithoutChakra)
	manifestURI := uri.FromPath(manifestPath)
	srcURI := uri.FromPath(filepath.Join(dir, "App.jsx"))

	tr := newTestTracker()
	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeCreated}})
	if tr.HasDependency(srcURI) {
		t.Fatal("expected false before chakra is declared")
	}

	writeManifest(t, dir, manifestWithChakra)
	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeChanged}})
	if !tr.HasDependency(srcURI) {
		t.Fatal("expected true after chakra is declared")
	}

	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeDeleted}})
	if tr.HasDependency(srcURI) {
		t.Fatal("expected false after manifest deletion")
	}
}

func TestUpdateFailSoftOnUnparsableManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, manifestWithChakra)
	manifestURI := uri.FromPath(manifestPath)
	srcURI := uri.FromPath(filepath.Join(dir, "App.jsx"))

	tr := newTestTracker()
	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeCreated}})
	if !tr.HasDependency(srcURI) {
		t.Fatal("expected true from valid manifest")
	}

	writeManifest(t, dir, `{"dependencies": `)
	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeChanged}})
	if !tr.HasDependency(srcURI) {
		t.Fatal("expected previous flag to survive an unparsable manifest")
	}
}

func TestUpdateIdempotent(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, manifestWithChakra)
	manifestURI := uri.FromPath(manifestPath)
	srcURI := uri.FromPath(filepath.Join(dir, "App.jsx"))

	tr := newTestTracker()
	events := []files.FileChangeEvent{{URI: manifestURI, Kind: files.ChangeChanged}}

	tr.UpdateFromFileChanges(events)
	first := tr.HasDependency(srcURI)
	tr.UpdateFromFileChanges(events)
	second := tr.HasDependency(srcURI)

	if first != second || !first {
		t.Fatalf("expected stable true flag, got %v then %v", first, second)
	}
}

func TestLastWriteWinsWithinBatch(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, manifestWithChakra)
	manifestURI := uri.FromPath(manifestPath)
	srcURI := uri.FromPath(filepath.Join(dir, "App.jsx"))

	tr := newTestTracker()
	tr.UpdateFromFileChanges([]files.FileChangeEvent{
		{URI: manifestURI, Kind: files.ChangeChanged},
		{URI: manifestURI, Kind: files.ChangeDeleted},
	})

	if tr.HasDependency(srcURI) {
		t.Fatal("expected the trailing delete to decide the scope state")
	}
}

func TestIgnoresNonManifestJSON(t *testing.T) {
	dir := t.TempDir()
	tsconfig := filepath.Join(dir, "tsconfig.json")
	if err := os.WriteFile(tsconfig, []byte(`{"compilerOptions": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := newTestTracker()
	tr.UpdateFromFileChanges([]files.FileChangeEvent{{URI: uri.FromPath(tsconfig), Kind: files.ChangeChanged}})

	if tr.ScopeCount() != 0 {
		t.Fatalf("expected no scopes from tsconfig.json, got %d", tr.ScopeCount())
	}
}

func TestRemoveScope(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, manifestWithChakra)

	tr := newTestTracker()
	tr.Initialize([]string{uri.FromPath(dir)})
	if tr.ScopeCount() != 1 {
		t.Fatalf("expected 1 scope, got %d", tr.ScopeCount())
	}

	tr.Remove(uri.FromPath(dir))
	if tr.ScopeCount() != 0 {
		t.Fatalf("expected 0 scopes after remove, got %d", tr.ScopeCount())
	}
	if tr.HasDependency(uri.FromPath(filepath.Join(dir, "App.tsx"))) {
		t.Fatal("expected false after scope removal")
	}
}
