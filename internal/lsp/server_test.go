package lsp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"chakrals/internal/core/config"
	"chakrals/internal/engine/analyzer"
	"chakrals/internal/engine/deps"
	"chakrals/internal/engine/files"
	"chakrals/internal/shared/uri"
	"chakrals/internal/shared/util"
)

const chakraManifest = `{
  "name": "demo",
  "dependencies": {
    "@chakra-ui/react": "^2.8.0",
    "react": "^18.0.0"
  }
}`

// newTestServer builds a server over a temp workspace folder that
// declares the chakra dependency.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(chakraManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	tracker := deps.NewTracker(cfg.Dependency.ManifestName, cfg.Dependency.Packages)
	an := analyzer.New(cfg.Dependency.Packages)
	reader := files.NewReader(util.NewLimiter(cfg.Limits.ReadsPerSecond, cfg.Limits.ReadBurst), cfg.Limits.MaxFileSize)

	s := NewServer(cfg, tracker, an, reader, nil, "test")
	s.tracker.Initialize([]string{uri.FromPath(dir)})
	return s, dir
}

func TestInitializeSeedsTrackerAndCapabilities(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(chakraManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	s := NewServer(cfg,
		deps.NewTracker(cfg.Dependency.ManifestName, cfg.Dependency.Packages),
		analyzer.New(cfg.Dependency.Packages),
		files.NewReader(util.NewLimiter(cfg.Limits.ReadsPerSecond, cfg.Limits.ReadBurst), cfg.Limits.MaxFileSize),
		nil, "test")

	raw := `{
		"capabilities": {
			"workspace": {"configuration": true, "workspaceFolders": true},
			"textDocument": {"publishDiagnostics": {"relatedInformation": true}}
		},
		"workspaceFolders": [{"uri": "` + uri.FromPath(dir) + `", "name": "demo"}]
	}`
	var params protocol.InitializeParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		t.Fatal(err)
	}

	result, err := s.initialize(&glsp.Context{}, &params)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if !s.caps.configuration || !s.caps.workspaceFolders || !s.caps.relatedInformation {
		t.Fatalf("capabilities not detected: %+v", s.caps)
	}
	if s.tracker.ScopeCount() != 1 {
		t.Fatalf("expected 1 tracked scope, got %d", s.tracker.ScopeCount())
	}

	initResult, ok := result.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if initResult.Capabilities.CompletionProvider == nil ||
		initResult.Capabilities.CompletionProvider.ResolveProvider == nil ||
		!*initResult.Capabilities.CompletionProvider.ResolveProvider {
		t.Fatal("expected completion resolve support to be advertised")
	}
}

func TestChangeKindMapping(t *testing.T) {
	cases := []struct {
		in   uint32
		want files.ChangeKind
		ok   bool
	}{
		{uint32(protocol.FileChangeTypeCreated), files.ChangeCreated, true},
		{uint32(protocol.FileChangeTypeChanged), files.ChangeChanged, true},
		{uint32(protocol.FileChangeTypeDeleted), files.ChangeDeleted, true},
		{99, 0, false},
	}
	for _, tc := range cases {
		got, ok := changeKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("changeKind(%d) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestProcessFileChangesRoutesBatch(t *testing.T) {
	s, dir := newTestServer(t)

	subDir := filepath.Join(dir, "pkg")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(subDir, "package.json")
	if err := os.WriteFile(manifestPath, []byte(chakraManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(subDir, "App.tsx")
	if err := os.WriteFile(srcPath, []byte("export const x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	srcURI := uri.FromPath(srcPath)
	s.processFileChanges(context.Background(), []files.FileChangeEvent{
		{URI: uri.FromPath(manifestPath), Kind: files.ChangeCreated},
		{URI: srcURI, Kind: files.ChangeCreated},
	})

	if !s.tracker.HasDependency(srcURI) {
		t.Fatal("manifest event should have registered the new scope")
	}
	if _, ok := s.analyzer.Cached(srcURI); !ok {
		t.Fatal("source event should have primed the parse cache")
	}

	s.processFileChanges(context.Background(), []files.FileChangeEvent{
		{URI: srcURI, Kind: files.ChangeDeleted},
	})
	if _, ok := s.analyzer.Cached(srcURI); ok {
		t.Fatal("deleted source should have been evicted")
	}
}

func TestDidCloseDropsDocumentAndSettings(t *testing.T) {
	s, dir := newTestServer(t)
	docURI := uri.FromPath(filepath.Join(dir, "a.tsx"))

	s.documents.open(docURI, "const a = 1\n", 1)
	s.settings.mu.Lock()
	s.settings.byURI[docURI] = DocumentSettings{MaxNumberOfProblems: 3}
	s.settings.mu.Unlock()

	err := s.didClose(&glsp.Context{}, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(docURI)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := s.documents.text(docURI); ok {
		t.Fatal("document should be closed")
	}
	s.settings.mu.Lock()
	_, cached := s.settings.byURI[docURI]
	s.settings.mu.Unlock()
	if cached {
		t.Fatal("per-document settings should be dropped on close")
	}
}
