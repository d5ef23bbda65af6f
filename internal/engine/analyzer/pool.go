package analyzer

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parser instances to avoid the
// per-request allocation overhead of sitter.NewParser() / Close().
// Each pool is tied to a single grammar; the analyzer keeps one pool per
// classified language.
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool

	leases   map[*sitter.Parser]time.Time
	leasesMu sync.Mutex
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{
		lang:   lang,
		leases: make(map[*sitter.Parser]time.Time),
	}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// get retrieves a parser configured for the pool's language.
func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Ensure the language is set in case the parser was Reset() externally.
	sp.SetLanguage(p.lang)

	p.leasesMu.Lock()
	p.leases[sp] = time.Now()
	p.leasesMu.Unlock()

	return sp
}

// put returns a parser for reuse. The parser is reset so no references
// to previous parse trees are retained. Callers must not use sp after
// calling put.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}

	p.leasesMu.Lock()
	delete(p.leases, sp)
	p.leasesMu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

// active returns the number of currently leased parsers.
func (p *parserPool) active() int {
	p.leasesMu.Lock()
	defer p.leasesMu.Unlock()
	return len(p.leases)
}
