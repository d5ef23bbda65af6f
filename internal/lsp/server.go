// Package lsp wires the analysis engine to a language-server transport.
// It owns the protocol handler table, the open-document store, the
// per-document settings cache and the validation pipeline.
package lsp

import (
	"context"
	"log/slog"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"chakrals/internal/core/config"
	"chakrals/internal/data/history"
	"chakrals/internal/engine/analyzer"
	"chakrals/internal/engine/deps"
	"chakrals/internal/engine/files"
	"chakrals/internal/shared/uri"
	"chakrals/internal/watcher"
)

const ServerName = "chakrals"

// requestContext unwraps the request-scoped context, which the transport
// leaves nil for notifications delivered outside a request.
func requestContext(glspCtx *glsp.Context) context.Context {
	if glspCtx != nil && glspCtx.Context != nil {
		return glspCtx.Context
	}
	return context.Background()
}

// clientCaps records the slice of client capabilities the server adapts
// its behavior to.
type clientCaps struct {
	configuration      bool
	workspaceFolders   bool
	relatedInformation bool
}

type Server struct {
	version string
	cfg     *config.Config

	tracker  *deps.Tracker
	analyzer *analyzer.Analyzer
	reader   *files.Reader
	store    *history.Store

	handler   protocol.Handler
	documents *documentStore
	settings  *settingsCache

	caps    clientCaps
	folders []string

	watch     *watcher.Watcher
	startedAt time.Time
}

func NewServer(cfg *config.Config, tracker *deps.Tracker, an *analyzer.Analyzer, reader *files.Reader, store *history.Store, version string) *Server {
	s := &Server{
		version:   version,
		cfg:       cfg,
		tracker:   tracker,
		analyzer:  an,
		reader:    reader,
		store:     store,
		documents: newDocumentStore(),
		settings: newSettingsCache(DocumentSettings{
			MaxNumberOfProblems: cfg.Validation.MaxNumberOfProblems,
		}),
		startedAt: time.Now(),
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,

		TextDocumentHover:      s.hover,
		TextDocumentCompletion: s.completion,
		CompletionItemResolve:  s.completionResolve,

		WorkspaceDidChangeConfiguration:    s.didChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:     s.didChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: s.didChangeWorkspaceFolders,
	}

	return s
}

// RunStdio serves JSON-RPC over stdin/stdout until the client
// disconnects. All logging must go to stderr in this mode.
func (s *Server) RunStdio() error {
	srv := glspserver.NewServer(&s.handler, ServerName, false)
	return srv.RunStdio()
}

func (s *Server) initialize(glspCtx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if ws := params.Capabilities.Workspace; ws != nil {
		s.caps.configuration = ws.Configuration != nil && *ws.Configuration
		s.caps.workspaceFolders = ws.WorkspaceFolders != nil && *ws.WorkspaceFolders
	}
	if td := params.Capabilities.TextDocument; td != nil && td.PublishDiagnostics != nil {
		s.caps.relatedInformation = td.PublishDiagnostics.RelatedInformation != nil &&
			*td.PublishDiagnostics.RelatedInformation
	}
	if s.caps.configuration {
		s.settings.enableScoped()
	}

	s.folders = nil
	for _, folder := range params.WorkspaceFolders {
		s.folders = append(s.folders, string(folder.URI))
	}
	if len(s.folders) == 0 && params.RootURI != nil {
		s.folders = append(s.folders, string(*params.RootURI))
	}

	s.tracker.Initialize(s.folders)
	slog.Info("initialized workspace",
		"folders", len(s.folders),
		"scoped_configuration", s.caps.configuration,
		"tracked_scopes", s.tracker.ScopeCount())

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindIncremental
	resolveProvider := true
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		ResolveProvider: &resolveProvider,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(glspCtx *glsp.Context, params *protocol.InitializedParams) error {
	if !s.cfg.Watch.Enabled {
		return nil
	}

	// Fallback for clients that never push didChangeWatchedFiles: watch
	// the workspace folders ourselves and feed the same pipeline.
	roots := make([]string, 0, len(s.folders))
	for _, folderURI := range s.folders {
		path, err := uri.ToPath(folderURI)
		if err != nil {
			continue
		}
		roots = append(roots, path)
	}
	if len(roots) == 0 {
		return nil
	}

	w, err := watcher.NewWatcher(s.cfg.Watch.Debounce, s.cfg.Watch.ExcludeDirs, s.cfg.Watch.ExcludeFiles,
		func(batch []files.FileChangeEvent) {
			s.processFileChanges(context.Background(), batch)
		})
	if err != nil {
		slog.Warn("fallback watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(roots); err != nil {
		slog.Warn("fallback watcher failed to start", "error", err)
		w.Close()
		return nil
	}

	s.watch = w
	slog.Info("fallback watcher started", "roots", len(roots), "debounce", s.cfg.Watch.Debounce)
	return nil
}

func (s *Server) shutdown(glspCtx *glsp.Context) error {
	if s.watch != nil {
		if err := s.watch.Close(); err != nil {
			slog.Warn("closing watcher", "error", err)
		}
		s.watch = nil
	}
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(glspCtx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(glspCtx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	docURI := string(params.TextDocument.URI)
	s.documents.open(docURI, params.TextDocument.Text, int32(params.TextDocument.Version))
	go s.validate(glspCtx, docURI)
	return nil
}

func (s *Server) didChange(glspCtx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	docURI := string(params.TextDocument.URI)
	s.documents.applyChanges(docURI, int32(params.TextDocument.Version), params.ContentChanges)
	go s.validate(glspCtx, docURI)
	return nil
}

func (s *Server) didClose(glspCtx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	docURI := string(params.TextDocument.URI)
	s.documents.close(docURI)
	s.settings.drop(docURI)
	return nil
}

func (s *Server) didChangeConfiguration(glspCtx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	if s.caps.configuration {
		// Cached per-document values may be stale in unknown ways, so
		// they are dropped wholesale and refetched on demand.
		s.settings.clear()
	} else {
		s.settings.setGlobal(params.Settings)
	}

	for _, docURI := range s.documents.uris() {
		go s.validate(glspCtx, docURI)
	}
	return nil
}

func (s *Server) didChangeWorkspaceFolders(glspCtx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	for _, folder := range params.Event.Removed {
		s.tracker.Remove(string(folder.URI))
	}
	added := make([]string, 0, len(params.Event.Added))
	for _, folder := range params.Event.Added {
		added = append(added, string(folder.URI))
	}
	if len(added) > 0 {
		s.tracker.Initialize(added)
	}
	return nil
}
