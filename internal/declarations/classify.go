package declarations

import (
	"strings"

	"github.com/jshufro/abistructs/internal/abi"
)

const structHintPrefix = "struct "

// Classify decides whether p is elementary or struct-shaped. For structs the
// internalType hint ("struct Name" or "struct Scope.Name", array brackets
// ignored) is attached as the Identifier when it parses; otherwise the type is
// left anonymous. Classify never fails.
func Classify(p abi.Parameter) Type {
	if !strings.HasPrefix(p.Type, tuplePrefix) {
		return Type{Kind: KindElementary, RawType: p.Type}
	}

	out := Type{
		Kind:       KindStruct,
		RawType:    p.Type,
		Components: p.Components,
	}
	if id, ok := parseStructHint(p.InternalType); ok {
		out.Identifier = &id
	}
	return out
}

func parseStructHint(internalType string) (Identifier, bool) {
	qualified, ok := strings.CutPrefix(internalType, structHintPrefix)
	if !ok {
		return Identifier{}, false
	}
	if i := strings.IndexByte(qualified, '['); i >= 0 {
		qualified = qualified[:i]
	}

	parts := strings.Split(qualified, ".")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Identifier{}, false
		}
		return Identifier{Name: parts[0]}, true
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Identifier{}, false
		}
		return Identifier{Scope: parts[0], Name: parts[1]}, true
	}
	return Identifier{}, false
}

func classifyComponents(components []abi.Parameter) []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		out = append(out, Component{Name: c.Name, Type: Classify(c)})
	}
	return out
}
