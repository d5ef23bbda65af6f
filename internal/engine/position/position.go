// Package position converts between the editor protocol's zero-based
// line/character positions and the analyzer's 1-based locations. No
// other package performs this conversion.
package position

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"chakrals/internal/engine/analyzer"
)

// FromProtocol maps a zero-based protocol position to a 1-based
// analyzer location.
func FromProtocol(pos protocol.Position) analyzer.Location {
	return analyzer.Location{
		Line:   int(pos.Line) + 1,
		Column: int(pos.Character) + 1,
	}
}

// ToProtocol maps a 1-based analyzer location back to a zero-based
// protocol position. Locations before line/column 1 clamp to zero.
func ToProtocol(loc analyzer.Location) protocol.Position {
	line := loc.Line - 1
	if line < 0 {
		line = 0
	}
	character := loc.Column - 1
	if character < 0 {
		character = 0
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(character),
	}
}

// ToProtocolRange maps an analyzer span to a protocol range.
func ToProtocolRange(span analyzer.Span) protocol.Range {
	return protocol.Range{
		Start: ToProtocol(span.Start),
		End:   ToProtocol(span.End),
	}
}
