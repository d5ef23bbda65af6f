package analyzer

import (
	"time"

	"chakrals/internal/engine/files"
)

// Location is a 1-based line/column pair in the analyzed representation.
// Editor positions are zero-based; the position package owns the
// conversion between the two.
type Location struct {
	Line   int
	Column int
}

// Before reports whether l orders strictly before other.
func (l Location) Before(other Location) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Span is a half-open [Start, End) range of source text.
type Span struct {
	Start Location
	End   Location
}

// Contains reports whether the span covers pt.
func (s Span) Contains(pt Location) bool {
	return !pt.Before(s.Start) && pt.Before(s.End)
}

func (s Span) width() int {
	return (s.End.Line-s.Start.Line)*1_000_000 + (s.End.Column - s.Start.Column)
}

// Import is one ES import statement.
type Import struct {
	Module   string   // module specifier, quotes stripped
	Items    []string // named imports; default import included as-is
	IsChakra bool
	Span     Span // whole statement
}

// Element is one JSX/TSX element usage; the span covers the tag name of
// the opening (or self-closing) element.
type Element struct {
	Name string
	Span Span
}

// Source is the reusable analyzed representation of one document.
type Source struct {
	Language files.Language
	Imports  []Import
	Elements []Element
}

// ImportAt returns the import statement covering pt, if any.
func (s *Source) ImportAt(pt Location) (Import, bool) {
	for _, imp := range s.Imports {
		if imp.Span.Contains(pt) {
			return imp, true
		}
	}
	return Import{}, false
}

// ElementAt returns the innermost element name covering pt, if any.
func (s *Source) ElementAt(pt Location) (Element, bool) {
	var best Element
	found := false
	for _, el := range s.Elements {
		if !el.Span.Contains(pt) {
			continue
		}
		if !found || el.Span.width() < best.Span.width() {
			best = el
			found = true
		}
	}
	return best, found
}

// ChakraImport returns the import that provides the given element name,
// matching both plain names (Box) and member roots (Chakra in
// Chakra.Box).
func (s *Source) ChakraImport(elementName string) (Import, bool) {
	root := elementName
	for i := 0; i < len(root); i++ {
		if root[i] == '.' {
			root = root[:i]
			break
		}
	}
	for _, imp := range s.Imports {
		if !imp.IsChakra {
			continue
		}
		for _, item := range imp.Items {
			if item == root {
				return imp, true
			}
		}
	}
	return Import{}, false
}

// Document is one cache entry: the parsed form of a URI's source text.
// Entries are immutable once published; the cache replaces them
// wholesale so a reader holding a stale pointer never observes a
// half-updated entry.
type Document struct {
	URI        string
	SourceText string
	Source     *Source
	ParsedAt   time.Time
}
