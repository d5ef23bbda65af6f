package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"chakrals/internal/engine/files"
)

// nodeHandler processes one node kind. Returning true stops the walker
// from descending into the node's children.
type nodeHandler func(ctx *extraction, node *sitter.Node) bool

// extraction carries shared state for a single document walk.
type extraction struct {
	source        []byte
	src           *Source
	chakraMatcher func(module string) bool
}

var handlers = map[string]nodeHandler{
	"import_statement":         extractImport,
	"jsx_opening_element":      extractElementName,
	"jsx_self_closing_element": extractElementName,
}

// walk dispatches node handlers by kind over the whole tree. The JS, TS
// and TSX grammars share the node kind names the handlers care about.
func walk(ctx *extraction, node *sitter.Node) {
	if node == nil {
		return
	}

	stop := false
	if handler, ok := handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}
	if stop {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walk(ctx, node.Child(i))
	}
}

func extractSource(root *sitter.Node, source []byte, lang files.Language, chakraMatcher func(string) bool) *Source {
	ctx := &extraction{
		source:        source,
		src:           &Source{Language: lang},
		chakraMatcher: chakraMatcher,
	}
	walk(ctx, root)
	return ctx.src
}

func extractImport(ctx *extraction, node *sitter.Node) bool {
	imp := Import{Span: spanOf(node)}

	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		imp.Module = strings.Trim(ctx.text(sourceNode), "\"'`")
	}
	if imp.Module == "" {
		return true
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "import_clause" {
			continue
		}
		collectImportBindings(ctx, child, &imp)
	}

	imp.IsChakra = ctx.chakraMatcher(imp.Module)
	ctx.src.Imports = append(ctx.src.Imports, imp)
	return true
}

// collectImportBindings gathers the local names an import clause binds:
// default imports, namespace imports and named specifiers (the alias
// when one is present).
func collectImportBindings(ctx *extraction, clause *sitter.Node, imp *Import) {
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "identifier":
			imp.Items = append(imp.Items, ctx.text(child))
		case "namespace_import":
			for j := uint(0); j < child.ChildCount(); j++ {
				if child.Child(j).Kind() == "identifier" {
					imp.Items = append(imp.Items, ctx.text(child.Child(j)))
				}
			}
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if local != nil {
					imp.Items = append(imp.Items, ctx.text(local))
				}
			}
		}
	}
}

func extractElementName(ctx *extraction, node *sitter.Node) bool {
	name := node.ChildByFieldName("name")
	if name == nil {
		return false
	}
	ctx.src.Elements = append(ctx.src.Elements, Element{
		Name: ctx.text(name),
		Span: spanOf(name),
	})
	return false
}

func (ctx *extraction) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(ctx.source[node.StartByte():node.EndByte()])
}

func spanOf(node *sitter.Node) Span {
	start := node.StartPosition()
	end := node.EndPosition()
	return Span{
		Start: Location{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   Location{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}
