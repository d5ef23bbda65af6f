package lsp

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.opentelemetry.io/otel/attribute"

	"chakrals/internal/data/history"
	"chakrals/internal/shared/observability"
)

const diagnosticSource = "chakrals"

// allCapsPattern flags shouting identifiers: two or more consecutive
// uppercase letters forming a whole word.
var allCapsPattern = regexp.MustCompile(`\b[A-Z]{2,}\b`)

// validate runs one validation pass for an open document. The settings
// fetch can block on a client round trip, so the document text is read
// only afterwards; if the document closed in the meantime the pass is
// abandoned. Publishing always replaces the previous diagnostics for the
// URI wholesale.
func (s *Server) validate(glspCtx *glsp.Context, docURI string) {
	_, span := observability.Tracer.Start(requestContext(glspCtx), "lsp.validate")
	span.SetAttributes(attribute.String("document.uri", docURI))
	defer span.End()

	started := time.Now()

	settings := s.settings.forResource(glspCtx, docURI)

	text, ok := s.documents.text(docURI)
	if !ok {
		return
	}

	diagnostics := s.scanDocument(docURI, text, settings.MaxNumberOfProblems)

	glspCtx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(docURI),
		Diagnostics: diagnostics,
	})

	elapsed := time.Since(started)
	observability.ValidationDuration.Observe(elapsed.Seconds())
	observability.DiagnosticsPublishedTotal.Add(float64(len(diagnostics)))

	if err := s.store.SaveValidation(history.ValidationRecord{
		URI:             docURI,
		DiagnosticCount: len(diagnostics),
		Duration:        elapsed,
		Timestamp:       started.UTC(),
	}); err != nil {
		slog.Warn("failed to record validation", "uri", docURI, "error", err)
	}

	slog.Debug("validated document",
		"uri", docURI,
		"diagnostics", len(diagnostics),
		"duration", elapsed)
}

// scanDocument finds all-caps words line by line and stops once the
// problem budget is spent. Diagnostics are never nil so an empty result
// still clears stale entries on the client.
func (s *Server) scanDocument(docURI, text string, maxProblems int) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if maxProblems <= 0 {
		return diagnostics
	}

	severity := protocol.DiagnosticSeverityWarning
	source := diagnosticSource

	line := protocol.UInteger(0)
	for start := 0; start <= len(text); {
		end := start
		for end < len(text) && text[end] != '\n' {
			end++
		}
		lineText := text[start:end]

		for _, match := range allCapsPattern.FindAllStringIndex(lineText, -1) {
			word := lineText[match[0]:match[1]]
			rng := protocol.Range{
				Start: protocol.Position{Line: line, Character: columnOf(lineText, match[0])},
				End:   protocol.Position{Line: line, Character: columnOf(lineText, match[1])},
			}

			diagnostic := protocol.Diagnostic{
				Range:    rng,
				Severity: &severity,
				Source:   &source,
				Message:  fmt.Sprintf("%s is all uppercase.", word),
			}
			if s.caps.relatedInformation {
				diagnostic.RelatedInformation = []protocol.DiagnosticRelatedInformation{
					{
						Location: protocol.Location{URI: protocol.DocumentUri(docURI), Range: rng},
						Message:  "Spelling matters",
					},
					{
						Location: protocol.Location{URI: protocol.DocumentUri(docURI), Range: rng},
						Message:  "Particularly for names",
					},
				}
			}

			diagnostics = append(diagnostics, diagnostic)
			if len(diagnostics) >= maxProblems {
				return diagnostics
			}
		}

		line++
		start = end + 1
	}

	return diagnostics
}

// columnOf converts a byte offset within a line into a character column.
func columnOf(lineText string, byteOffset int) protocol.UInteger {
	return protocol.UInteger(utf8.RuneCountInString(lineText[:byteOffset]))
}
