package lsp

import (
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

type textDocument struct {
	text    string
	version int32
}

// documentStore holds the text of currently open editor buffers. Change
// events for one URI arrive in order; the store always reflects the
// latest applied edit, which is what validation re-reads after its
// settings fetch resolves.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*textDocument
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]*textDocument)}
}

func (s *documentStore) open(uri, text string, version int32) {
	s.mu.Lock()
	s.docs[uri] = &textDocument{text: text, version: version}
	s.mu.Unlock()
}

func (s *documentStore) close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

func (s *documentStore) text(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return "", false
	}
	return doc.text, true
}

func (s *documentStore) uris() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}

func (s *documentStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// applyChanges applies an incremental-sync change batch to an open
// document. Whole-document changes replace the text outright.
func (s *documentStore) applyChanges(uri string, version int32, changes []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return
	}

	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			doc.text = applyRangeChange(doc.text, c.Range, c.Text)
		case *protocol.TextDocumentContentChangeEvent:
			doc.text = applyRangeChange(doc.text, c.Range, c.Text)
		case protocol.TextDocumentContentChangeEventWhole:
			doc.text = c.Text
		case *protocol.TextDocumentContentChangeEventWhole:
			doc.text = c.Text
		}
	}
	doc.version = version
}

func applyRangeChange(text string, rng *protocol.Range, newText string) string {
	if rng == nil {
		return newText
	}
	start := offsetAt(text, rng.Start)
	end := offsetAt(text, rng.End)
	if end < start {
		end = start
	}
	return text[:start] + newText + text[end:]
}

// offsetAt converts a protocol position into a byte offset, clamping
// positions past the end of a line or the document.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0
	remaining := text
	for line := protocol.UInteger(0); line < pos.Line; line++ {
		idx := strings.IndexByte(remaining, '\n')
		if idx < 0 {
			return len(text)
		}
		offset += idx + 1
		remaining = remaining[idx+1:]
	}

	lineEnd := strings.IndexByte(remaining, '\n')
	if lineEnd < 0 {
		lineEnd = len(remaining)
	}
	column := 0
	for i := range remaining[:lineEnd] {
		if column == int(pos.Character) {
			return offset + i
		}
		column++
	}
	return offset + lineEnd
}
