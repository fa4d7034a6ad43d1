package declarations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshufro/abistructs/internal/abi"
)

func TestResolveSharedAnonymousTuple(t *testing.T) {
	shape := func() abi.Parameter {
		return tuple("s", "tuple", "", elem("a", "uint256"), elem("b", "address"))
	}
	entries := abi.ABI{
		function("f", []abi.Parameter{shape()}),
		function("g", []abi.Parameter{shape()}),
	}

	cat, err := Build(entries)
	require.NoError(t, err)

	all := cat.AllDeclarations()
	require.Len(t, all, 1)
	assert.Equal(t, Declaration{
		Identifier: Identifier{Name: "S_0"},
		Signature:  "(uint256,address)",
		Components: []Component{
			{Name: "a", Type: Type{Kind: KindElementary, RawType: "uint256"}},
			{Name: "b", Type: Type{Kind: KindElementary, RawType: "address"}},
		},
	}, all[0])
}

func TestResolveScopedWithNestedAnonymous(t *testing.T) {
	inner := tuple("inner", "tuple", "", elem("x", "bool"))
	outer := tuple("outer", "tuple", "struct Foo.Bar", elem("a", "uint256"), inner)

	cat, err := Build(abi.ABI{function("f", []abi.Parameter{outer})})
	require.NoError(t, err)

	all := cat.AllDeclarations()
	require.Len(t, all, 2)

	bar, ok := cat.IdentifierDeclaration(Identifier{Scope: "Foo", Name: "Bar"})
	require.True(t, ok)
	s0, ok := cat.IdentifierDeclaration(Identifier{Name: "S_0"})
	require.True(t, ok)

	require.Len(t, bar.Components, 2)
	ref := bar.Components[1].Type
	require.True(t, ref.IsStruct())
	require.NotNil(t, ref.Identifier)
	assert.Equal(t, s0.Identifier, *ref.Identifier)

	assert.Equal(t, []Declaration{bar}, cat.ScopeDeclarations("Foo"))
	assert.Equal(t, []Declaration{s0}, cat.GlobalDeclarations())
	assert.Equal(t, []string{"Foo"}, cat.ScopeNames())
}

func TestResolveDistinctHintsShareSignature(t *testing.T) {
	entries := abi.ABI{
		function("f", []abi.Parameter{tuple("a", "tuple", "struct A.Point", elem("x", "int256"), elem("y", "int256"))}),
		function("g", []abi.Parameter{tuple("b", "tuple", "struct B.Point", elem("x", "int256"), elem("y", "int256"))}),
	}

	cat, err := Build(entries)
	require.NoError(t, err)

	same := cat.SignatureDeclarations("(int256,int256)")
	require.Len(t, same, 2)
	assert.Equal(t, Identifier{Scope: "A", Name: "Point"}, same[0].Identifier)
	assert.Equal(t, Identifier{Scope: "B", Name: "Point"}, same[1].Identifier)

	// both scopes list the signature, each only yields its own declaration
	assert.Equal(t, []Declaration{same[0]}, cat.ScopeDeclarations("A"))
	assert.Equal(t, []Declaration{same[1]}, cat.ScopeDeclarations("B"))
	assert.Empty(t, cat.GlobalDeclarations())
}

func TestResolveNamesInDocumentOrder(t *testing.T) {
	entries := abi.ABI{
		function("f",
			[]abi.Parameter{
				tuple("in", "tuple", "",
					elem("a", "uint8"),
					tuple("nested", "tuple", "", elem("b", "uint16")),
				),
			},
			tuple("out", "tuple", "", elem("c", "uint32")),
		),
		{Type: abi.Event, Name: "E", Inputs: []abi.Parameter{tuple("e", "tuple", "", elem("d", "uint64"))}},
	}

	cat, err := Build(entries)
	require.NoError(t, err)

	want := map[string]string{
		"S_0": "(uint8,(uint16))",
		"S_1": "(uint16)",
		"S_2": "(uint32)",
		"S_3": "(uint64)",
	}
	for name, signature := range want {
		d, ok := cat.IdentifierDeclaration(Identifier{Name: name})
		require.True(t, ok, name)
		assert.Equal(t, signature, d.Signature, name)
	}
}

func TestResolveSkipsHintedSyntheticNames(t *testing.T) {
	entries := abi.ABI{
		function("f", []abi.Parameter{
			tuple("a", "tuple", "", elem("x", "uint256")),
			tuple("b", "tuple", "struct S_0", elem("x", "bool")),
		}),
	}

	cat, err := Build(entries)
	require.NoError(t, err)
	require.NoError(t, cat.Validate())

	anon := cat.SignatureDeclarations("(uint256)")
	require.Len(t, anon, 1)
	assert.Equal(t, Identifier{Name: "S_1"}, anon[0].Identifier)
}

func TestResolveUnknownSignature(t *testing.T) {
	// a collection missing the nested candidate can only come from a broken collector
	c := NewCollection()
	c.addCandidate(&candidate{
		signature: "((bool))",
		components: []Component{
			{Name: "inner", Type: Classify(tuple("inner", "tuple", "", elem("x", "bool")))},
		},
	})
	c.addScopeSignature("", "((bool))")

	cat, err := Resolve(c)
	require.ErrorIs(t, err, ErrUnknownSignature)
	assert.Nil(t, cat)
}

func TestResolveReproducible(t *testing.T) {
	g := newABIGen(42)
	for range 25 {
		entries := g.abi(8)

		first, err := Build(entries)
		require.NoError(t, err)
		second, err := Build(entries)
		require.NoError(t, err)

		require.Equal(t, first.AllDeclarations(), second.AllDeclarations())

		// resolving the same collection twice must not leak state either
		c := Collect(entries)
		a, err := Resolve(c)
		require.NoError(t, err)
		b, err := Resolve(c)
		require.NoError(t, err)
		require.Equal(t, a.AllDeclarations(), b.AllDeclarations())
	}
}

func TestResolveCompleteness(t *testing.T) {
	g := newABIGen(1337)
	for range 50 {
		cat, err := Build(g.abi(6))
		require.NoError(t, err)

		for _, d := range cat.AllDeclarations() {
			for _, component := range d.Components {
				if !component.Type.IsStruct() {
					continue
				}
				require.NotNil(t, component.Type.Identifier, "%s.%s", d.Identifier, component.Name)
				_, ok := cat.IdentifierDeclaration(*component.Type.Identifier)
				require.True(t, ok, "%s.%s -> %s", d.Identifier, component.Name, component.Type.Identifier)
			}
		}
	}
}

func TestResolveScopePartition(t *testing.T) {
	g := newABIGen(99)
	for range 50 {
		cat, err := Build(g.abi(6))
		require.NoError(t, err)

		seen := 0
		for _, d := range cat.GlobalDeclarations() {
			require.True(t, d.Identifier.Global())
			seen++
		}
		for _, scope := range cat.ScopeNames() {
			for _, d := range cat.ScopeDeclarations(scope) {
				require.Equal(t, scope, d.Identifier.Scope)
				seen++
			}
		}
		require.Equal(t, cat.Len(), seen)
	}
}
