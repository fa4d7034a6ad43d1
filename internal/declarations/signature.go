package declarations

import (
	"strings"

	"github.com/jshufro/abistructs/internal/abi"
)

// Signature returns the canonical structural key of a tuple's component list.
// Only the component types take part, recursively for nested tuples, so two
// tuples differing only in member names or struct hints share a signature:
//
//	(uint256,(address,bool)[])
func Signature(components []abi.Parameter) string {
	var b strings.Builder
	writeTuple(&b, components)
	return b.String()
}

func writeTuple(b *strings.Builder, components []abi.Parameter) {
	b.WriteByte('(')
	for i, c := range components {
		if i > 0 {
			b.WriteByte(',')
		}
		if suffix, ok := strings.CutPrefix(c.Type, tuplePrefix); ok {
			writeTuple(b, c.Components)
			b.WriteString(suffix)
			continue
		}
		b.WriteString(c.Type)
	}
	b.WriteByte(')')
}
