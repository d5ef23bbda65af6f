package lsp

import (
	"context"
	"log/slog"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.opentelemetry.io/otel/attribute"

	"chakrals/internal/engine/analyzer"
	"chakrals/internal/engine/files"
	"chakrals/internal/shared/observability"
)

func (s *Server) didChangeWatchedFiles(glspCtx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	batch := make([]files.FileChangeEvent, 0, len(params.Changes))
	for _, change := range params.Changes {
		kind, ok := changeKind(uint32(change.Type))
		if !ok {
			continue
		}
		batch = append(batch, files.FileChangeEvent{URI: string(change.URI), Kind: kind})
	}

	s.processFileChanges(requestContext(glspCtx), batch)
	return nil
}

func changeKind(t uint32) (files.ChangeKind, bool) {
	switch t {
	case uint32(protocol.FileChangeTypeCreated):
		return files.ChangeCreated, true
	case uint32(protocol.FileChangeTypeChanged):
		return files.ChangeChanged, true
	case uint32(protocol.FileChangeTypeDeleted):
		return files.ChangeDeleted, true
	default:
		return 0, false
	}
}

// processFileChanges routes one change batch: manifest events update
// dependency scopes, source events refresh or evict parse cache entries.
// Batches from the client and from the fallback watcher take the same
// path.
func (s *Server) processFileChanges(ctx context.Context, batch []files.FileChangeEvent) {
	if len(batch) == 0 {
		return
	}

	ctx, span := observability.Tracer.Start(ctx, "lsp.watched_files")
	span.SetAttributes(attribute.Int("batch.size", len(batch)))
	defer span.End()

	manifests, sources := files.Partition(batch)
	observability.WatchedEventsTotal.WithLabelValues("manifest").Add(float64(len(manifests)))
	observability.WatchedEventsTotal.WithLabelValues("source").Add(float64(len(sources)))

	if len(manifests) > 0 {
		s.tracker.UpdateFromFileChanges(manifests)
	}

	var toRead []string
	for _, event := range sources {
		if event.Kind == files.ChangeDeleted {
			s.analyzer.Evict(event.URI)
			continue
		}
		toRead = append(toRead, event.URI)
	}
	if len(toRead) == 0 {
		return
	}

	result, err := s.reader.ReadAll(ctx, toRead)
	if err != nil {
		slog.Error("batch read aborted", "files", len(toRead), "error", err)
		return
	}

	for _, success := range result.Successes {
		s.analyzer.Parse(ctx, analyzer.Request{
			URI:        success.URI,
			Code:       string(success.Content),
			Invalidate: true,
		})
	}
	for _, failure := range result.Failures {
		slog.Warn("watched file unreadable", "uri", failure.URI, "error", failure.Err)
	}

	slog.Debug("processed change batch",
		"manifests", len(manifests),
		"sources", len(sources),
		"read_failures", len(result.Failures))
}
