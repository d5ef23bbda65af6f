package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"chakrals/internal/engine/analyzer"
	"chakrals/internal/engine/files"
	"chakrals/internal/engine/position"
	"chakrals/internal/shared/observability"
)

// hover answers textDocument/hover for chakra-enabled JavaScript and
// TypeScript documents. Anything that prevents an answer degrades to an
// empty response rather than a protocol error.
func (s *Server) hover(glspCtx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	docURI := string(params.TextDocument.URI)

	if !s.tracker.HasDependency(docURI) {
		observability.HoverRequestsTotal.WithLabelValues("no_dependency").Inc()
		return nil, nil
	}
	if !files.IsSource(docURI) {
		observability.HoverRequestsTotal.WithLabelValues("not_source").Inc()
		return nil, nil
	}

	ctx := requestContext(glspCtx)

	text, ok := s.documents.text(docURI)
	if !ok {
		content, err := s.reader.ReadFile(ctx, docURI)
		if err != nil {
			observability.HoverRequestsTotal.WithLabelValues("unreadable").Inc()
			return nil, nil
		}
		text = string(content)
	}

	doc := s.analyzer.Parse(ctx, analyzer.Request{URI: docURI, Code: text, Invalidate: true})
	if doc == nil {
		observability.HoverRequestsTotal.WithLabelValues("unparsable").Inc()
		return nil, nil
	}

	point := position.FromProtocol(params.Position)

	if element, ok := doc.Source.ElementAt(point); ok {
		if imp, ok := doc.Source.ChakraImport(element.Name); ok {
			observability.HoverRequestsTotal.WithLabelValues("element").Inc()
			rng := position.ToProtocolRange(element.Span)
			return &protocol.Hover{
				Contents: protocol.MarkupContent{
					Kind:  protocol.MarkupKindMarkdown,
					Value: elementMarkdown(element.Name, imp.Module),
				},
				Range: &rng,
			}, nil
		}
	}

	if imp, ok := doc.Source.ImportAt(point); ok && imp.IsChakra {
		observability.HoverRequestsTotal.WithLabelValues("import").Inc()
		rng := position.ToProtocolRange(imp.Span)
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: importMarkdown(imp),
			},
			Range: &rng,
		}, nil
	}

	observability.HoverRequestsTotal.WithLabelValues("no_target").Inc()
	return nil, nil
}

func elementMarkdown(name, module string) string {
	root := componentRoot(name)
	return fmt.Sprintf("**<%s>** is a Chakra UI component imported from `%s`.\n\n[Component documentation](https://chakra-ui.com/docs/components/%s)",
		name, module, strings.ToLower(root))
}

func importMarkdown(imp analyzer.Import) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chakra UI import from `%s`.", imp.Module)
	if len(imp.Items) > 0 {
		b.WriteString("\n\nImported bindings:\n")
		for _, item := range imp.Items {
			fmt.Fprintf(&b, "- `%s`\n", item)
		}
	}
	return b.String()
}

// componentRoot strips member access so <Menu.Item> documents as Menu.
func componentRoot(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}
