package lsp

import (
	"context"
	"time"

	"chakrals/internal/data/history"
	"chakrals/internal/engine/analyzer"
)

type HealthStatus struct {
	Status            string                     `json:"status"`
	Version           string                     `json:"version"`
	Uptime            string                     `json:"uptime"`
	OpenDocuments     int                        `json:"open_documents"`
	TrackedScopes     int                        `json:"tracked_scopes"`
	ParseCache        analyzer.Stats             `json:"parse_cache"`
	RecentValidations []history.ValidationRecord `json:"recent_validations,omitempty"`
}

// Health reports a snapshot of server state for the observability
// endpoint. A server that can answer at all is up; the LSP transport has
// no partial-degradation mode.
func (s *Server) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:        "up",
		Version:       s.version,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
		OpenDocuments: s.documents.count(),
		TrackedScopes: s.tracker.ScopeCount(),
		ParseCache:    s.analyzer.Stats(),
	}

	if records, err := s.store.Recent(5); err == nil {
		status.RecentValidations = records
	}

	return status
}
