package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type catalogEntry struct {
	name   string
	detail string
	doc    string
}

// componentCatalog is the static completion surface offered inside
// chakra-enabled workspaces. Detail and documentation are filled lazily
// through completionItem/resolve.
var componentCatalog = []catalogEntry{
	{"Box", "Chakra UI layout primitive", "The most abstract component on top of which all other Chakra UI components are built."},
	{"Flex", "Chakra UI flexbox container", "Box with display set to flex, plus shorthand flexbox style props."},
	{"Grid", "Chakra UI grid container", "Box with display set to grid, plus shorthand grid style props."},
	{"Stack", "Chakra UI stacking layout", "Stacks children with consistent spacing in either direction."},
	{"HStack", "Chakra UI horizontal stack", "Stack with a horizontal direction and centered alignment."},
	{"VStack", "Chakra UI vertical stack", "Stack with a vertical direction and centered alignment."},
	{"Text", "Chakra UI text", "Renders text with themable typography props."},
	{"Heading", "Chakra UI heading", "Renders a semantic heading sized by the theme scale."},
	{"Button", "Chakra UI button", "Accessible button with variants, sizes and loading state."},
	{"IconButton", "Chakra UI icon button", "Button that renders only an icon with an accessible label."},
	{"Input", "Chakra UI text input", "Text field with themable variants and sizes."},
	{"Checkbox", "Chakra UI checkbox", "Checkbox with indeterminate state support."},
	{"Select", "Chakra UI select", "Native select element with themable styling."},
	{"Modal", "Chakra UI modal dialog", "Dialog overlay composed of Modal, ModalOverlay and ModalContent."},
	{"Tooltip", "Chakra UI tooltip", "Label shown on hover or focus of its child."},
	{"Spinner", "Chakra UI spinner", "Indeterminate loading indicator."},
}

// completion offers the component catalog in chakra-enabled workspaces
// and stays silent elsewhere.
func (s *Server) completion(glspCtx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	docURI := string(params.TextDocument.URI)
	if !s.tracker.HasDependency(docURI) {
		return nil, nil
	}

	kind := protocol.CompletionItemKindClass
	items := make([]protocol.CompletionItem, len(componentCatalog))
	for i, entry := range componentCatalog {
		items[i] = protocol.CompletionItem{
			Label: entry.name,
			Kind:  &kind,
			Data:  i,
		}
	}
	return items, nil
}

// completionResolve fills in detail and documentation for a previously
// offered item. Data survives the client round trip as a JSON number.
func (s *Server) completionResolve(glspCtx *glsp.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	idx, ok := itemIndex(item.Data)
	if !ok || idx < 0 || idx >= len(componentCatalog) {
		return item, nil
	}

	entry := componentCatalog[idx]
	detail := entry.detail
	item.Detail = &detail
	item.Documentation = protocol.MarkupContent{
		Kind:  protocol.MarkupKindMarkdown,
		Value: fmt.Sprintf("%s\n\n[Component documentation](https://chakra-ui.com/docs/components/%s)", entry.doc, strings.ToLower(entry.name)),
	}
	return item, nil
}

func itemIndex(data any) (int, bool) {
	switch v := data.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
