package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chakrals/internal/engine/files"
	"chakrals/internal/shared/observability"
)

// Request asks for the analyzed form of one document. Invalidate forces
// a fresh parse regardless of cache state.
type Request struct {
	URI        string
	Code       string
	Invalidate bool
}

// Stats is the analyzer's health surface.
type Stats struct {
	Parses        int64
	CacheHits     int64
	Invalidations int64
	Entries       int
	ActiveParsers int
}

// Analyzer owns the parse cache: one Document per URI, replaced
// atomically on re-parse. The cache exists to pay the parse cost at most
// once per distinct (uri, code) pair.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[string]*Document

	pools    map[files.Language]*parserPool
	packages []string

	parses        atomic.Int64
	hits          atomic.Int64
	invalidations atomic.Int64
}

func New(chakraPackages []string) *Analyzer {
	grammars := loadGrammars()
	pools := make(map[files.Language]*parserPool, len(grammars))
	for lang, grammar := range grammars {
		pools[lang] = newParserPool(grammar)
	}
	return &Analyzer{
		cache:    make(map[string]*Document),
		pools:    pools,
		packages: chakraPackages,
	}
}

// Parse returns the analyzed document for the request, served from the
// cache when the source text is unchanged. Unparsable input returns nil
// and leaves any previously cached entry for the URI untouched: a bad
// edit never erases a known-good analysis.
func (a *Analyzer) Parse(ctx context.Context, req Request) *Document {
	_, span := observability.Tracer.Start(ctx, "analyzer.Parse",
		trace.WithAttributes(attribute.String("uri", req.URI)))
	defer span.End()

	if !req.Invalidate {
		a.mu.RLock()
		cached, ok := a.cache[req.URI]
		a.mu.RUnlock()
		if ok && cached.SourceText == req.Code {
			a.hits.Add(1)
			observability.ParseCacheHitsTotal.Inc()
			return cached
		}
	} else {
		a.invalidations.Add(1)
	}
	observability.ParseCacheMissesTotal.Inc()

	doc := a.parse(req.URI, req.Code)
	if doc == nil {
		return nil
	}

	a.mu.Lock()
	a.cache[req.URI] = doc
	a.mu.Unlock()
	return doc
}

// Cached returns the current cache entry for a URI without parsing.
func (a *Analyzer) Cached(uri string) (*Document, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	doc, ok := a.cache[uri]
	return doc, ok
}

// Evict drops the cache entry for a URI, typically because the file was
// deleted from disk.
func (a *Analyzer) Evict(uri string) {
	a.mu.Lock()
	delete(a.cache, uri)
	a.mu.Unlock()
}

func (a *Analyzer) Stats() Stats {
	a.mu.RLock()
	entries := len(a.cache)
	a.mu.RUnlock()

	active := 0
	for _, pool := range a.pools {
		active += pool.active()
	}
	return Stats{
		Parses:        a.parses.Load(),
		CacheHits:     a.hits.Load(),
		Invalidations: a.invalidations.Load(),
		Entries:       entries,
		ActiveParsers: active,
	}
}

// parse performs one fresh parse. Returns nil for anything the analyzer
// cannot turn into a representation: unsupported file types, invalid
// UTF-8, or input so broken the grammar produces no usable tree.
func (a *Analyzer) parse(uri, code string) *Document {
	classification := files.Classify(uri)
	if classification.Category != files.CategorySource {
		slog.Debug("parse rejected: not a source file", "uri", uri)
		return nil
	}
	if !utf8.ValidString(code) {
		slog.Debug("parse rejected: invalid utf-8", "uri", uri)
		return nil
	}

	pool := a.pools[classification.Language]
	if pool == nil {
		slog.Debug("parse rejected: no grammar", "uri", uri, "language", classification.Language)
		return nil
	}

	start := time.Now()
	a.parses.Add(1)

	parser := pool.get()
	defer pool.put(parser)

	source := []byte(code)
	tree := parser.Parse(source, nil)
	if tree == nil {
		slog.Debug("parse produced no tree", "uri", uri)
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() == "ERROR" {
		// Partial trees with recoverable errors are fine; an ERROR root
		// means the grammar recognized nothing at all.
		slog.Debug("parse produced unusable tree", "uri", uri)
		return nil
	}

	src := extractSource(root, source, classification.Language, a.isChakraModule)
	observability.ParsingDuration.
		WithLabelValues(string(classification.Language)).
		Observe(time.Since(start).Seconds())

	return &Document{
		URI:        uri,
		SourceText: code,
		Source:     src,
		ParsedAt:   time.Now(),
	}
}

// isChakraModule matches the configured package names plus anything in
// the @chakra-ui scope.
func (a *Analyzer) isChakraModule(module string) bool {
	for _, pkg := range a.packages {
		if module == pkg {
			return true
		}
	}
	return strings.HasPrefix(module, "@chakra-ui/")
}
