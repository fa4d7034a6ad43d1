package declarations

import (
	"fmt"
	"math/rand/v2"

	"github.com/jshufro/abistructs/internal/abi"
)

func elem(name, typ string) abi.Parameter {
	return abi.Parameter{Name: name, Type: typ}
}

func tuple(name, typ, internalType string, components ...abi.Parameter) abi.Parameter {
	return abi.Parameter{
		Name:         name,
		Type:         typ,
		InternalType: internalType,
		Components:   components,
	}
}

func function(name string, inputs []abi.Parameter, outputs ...abi.Parameter) abi.Entry {
	return abi.Entry{Type: abi.Function, Name: name, Inputs: inputs, Outputs: outputs}
}

// abiGen produces arbitrary but reproducible ABIs with nested tuples. Struct
// hints are derived from the tuple shape, so one identifier never names two
// different shapes while one shape may still carry several identifiers.
type abiGen struct {
	r      *rand.Rand
	shapes map[string]int
}

func newABIGen(seed uint64) *abiGen {
	return &abiGen{
		r:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		shapes: make(map[string]int),
	}
}

var (
	genElementary = []string{"uint256", "address", "bool", "bytes32", "string", "int8", "bytes"}
	genSuffixes   = []string{"", "", "[]", "[3]", "[][2]"}
	genEntryTypes = []abi.EntryType{abi.Function, abi.Function, abi.Constructor, abi.Event, abi.Error, abi.Fallback, abi.Receive}
)

func (g *abiGen) hint(components []abi.Parameter) string {
	signature := Signature(components)
	shape, ok := g.shapes[signature]
	if !ok {
		shape = len(g.shapes)
		g.shapes[signature] = shape
	}

	switch g.r.IntN(6) {
	case 0:
		return fmt.Sprintf("struct G%d", shape)
	case 1:
		return fmt.Sprintf("struct C%d.N%d[]", g.r.IntN(3), shape)
	case 2:
		return "struct A.B.C"
	}
	return ""
}

func (g *abiGen) parameter(depth int) abi.Parameter {
	name := fmt.Sprintf("p%d", g.r.IntN(100))
	if depth <= 0 || g.r.IntN(3) > 0 {
		return elem(name, genElementary[g.r.IntN(len(genElementary))]+genSuffixes[g.r.IntN(2)])
	}

	n := 1 + g.r.IntN(4)
	components := make([]abi.Parameter, 0, n)
	for range n {
		components = append(components, g.parameter(depth-1))
	}
	return tuple(name, "tuple"+genSuffixes[g.r.IntN(len(genSuffixes))], g.hint(components), components...)
}

func (g *abiGen) params(depth int) []abi.Parameter {
	n := g.r.IntN(4)
	out := make([]abi.Parameter, 0, n)
	for range n {
		out = append(out, g.parameter(depth))
	}
	return out
}

func (g *abiGen) abi(entries int) abi.ABI {
	out := make(abi.ABI, 0, entries)
	for i := range entries {
		entry := abi.Entry{
			Type: genEntryTypes[g.r.IntN(len(genEntryTypes))],
			Name: fmt.Sprintf("e%d", i),
		}
		switch entry.Type {
		case abi.Fallback, abi.Receive:
		case abi.Function:
			entry.Inputs = g.params(3)
			entry.Outputs = g.params(3)
		default:
			entry.Inputs = g.params(3)
		}
		out = append(out, entry)
	}
	return out
}
