package declarations

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshufro/abistructs/internal/abi"
)

func TestCollectIgnoresElementaryAndFallback(t *testing.T) {
	entries := abi.ABI{
		{Type: abi.Fallback},
		{Type: abi.Receive},
		function("f", []abi.Parameter{elem("a", "uint256")}, elem("", "bool")),
		{Type: abi.Event, Name: "E", Inputs: []abi.Parameter{elem("a", "address")}},
	}

	c := Collect(entries)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.scopes)
}

func TestCollectVisitsEveryEntryKind(t *testing.T) {
	shape := func(hint string) abi.Parameter {
		return tuple("s", "tuple", hint, elem("a", "uint256"))
	}
	entries := abi.ABI{
		{Type: abi.Constructor, Inputs: []abi.Parameter{shape("struct Ctor")}},
		{Type: abi.Event, Name: "E", Inputs: []abi.Parameter{shape("struct Ev")}},
		{Type: abi.Error, Name: "Err", Inputs: []abi.Parameter{shape("struct Er")}},
		function("f", []abi.Parameter{shape("struct In")}, shape("struct Out")),
	}

	c := Collect(entries)
	require.Equal(t, 5, c.Len())

	var names []string
	for _, cand := range c.candidates {
		require.NotNil(t, cand.identifier)
		names = append(names, cand.identifier.Name)
	}
	assert.Equal(t, []string{"Ctor", "Ev", "Er", "In", "Out"}, names)
	assert.Equal(t, []string{""}, c.scopes)
	assert.Equal(t, []string{"(uint256)"}, c.scopeSignatures[""])
}

func TestCollectRecursesIntoComponents(t *testing.T) {
	p := tuple("outer", "tuple", "struct C.Outer",
		elem("a", "uint256"),
		tuple("inner", "tuple[]", "",
			tuple("deepest", "tuple", "struct Deep", elem("x", "bool")),
		),
	)

	c := CollectParameters(p)
	require.Equal(t, 3, c.Len())

	assert.Equal(t, "(uint256,((bool))[])", c.candidates[0].signature)
	assert.Equal(t, "((bool))", c.candidates[1].signature)
	assert.Equal(t, "(bool)", c.candidates[2].signature)

	assert.Nil(t, c.candidates[1].identifier)
	assert.Equal(t, []string{"C", ""}, c.scopes)
	assert.Equal(t, []string{"(uint256,((bool))[])"}, c.scopeSignatures["C"])
	assert.Equal(t, []string{"((bool))", "(bool)"}, c.scopeSignatures[""])
}

func TestCollectCoalescing(t *testing.T) {
	t.Run("anonymous candidates coalesce", func(t *testing.T) {
		c := CollectParameters(
			tuple("a", "tuple", "", elem("x", "uint256")),
			tuple("b", "tuple[]", "", elem("renamed", "uint256")),
		)
		require.Equal(t, 1, c.Len())
		// first occurrence wins
		assert.Equal(t, "x", c.candidates[0].components[0].Name)
	})

	t.Run("equal hints coalesce", func(t *testing.T) {
		c := CollectParameters(
			tuple("a", "tuple", "struct C.S", elem("x", "uint256")),
			tuple("b", "tuple", "struct C.S", elem("x", "uint256")),
		)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("different hints stay distinct", func(t *testing.T) {
		c := CollectParameters(
			tuple("a", "tuple", "struct C.S", elem("x", "uint256")),
			tuple("b", "tuple", "struct D.S", elem("x", "uint256")),
			tuple("c", "tuple", "struct S", elem("x", "uint256")),
		)
		assert.Equal(t, 3, c.Len())
		assert.Equal(t, []int{0, 1, 2}, c.bySignature["(uint256)"])
	})

	t.Run("named and anonymous stay distinct", func(t *testing.T) {
		c := CollectParameters(
			tuple("a", "tuple", "struct S", elem("x", "uint256")),
			tuple("b", "tuple", "", elem("x", "uint256")),
		)
		assert.Equal(t, 2, c.Len())
	})
}

func TestCollectMergeAssociative(t *testing.T) {
	g := newABIGen(11)
	for range 20 {
		a := Collect(g.abi(3))
		b := Collect(g.abi(3))
		c := Collect(g.abi(3))

		left := NewCollection()
		left.Merge(a)
		left.Merge(b)
		left.Merge(c)

		bc := NewCollection()
		bc.Merge(b)
		bc.Merge(c)
		right := NewCollection()
		right.Merge(a)
		right.Merge(bc)

		require.Equal(t, left, right)
	}
}

// candidateSet lists the candidates of c as "identifier signature" keys,
// sorted, with "_" standing in for anonymous candidates.
func candidateSet(c *Collection) []string {
	out := make([]string, 0, len(c.candidates))
	for _, cand := range c.candidates {
		name := "_"
		if cand.identifier != nil {
			name = cand.identifier.String()
		}
		out = append(out, name+" "+cand.signature)
	}
	slices.Sort(out)
	return out
}

func scopeSets(c *Collection) map[string][]string {
	out := make(map[string][]string, len(c.scopeSignatures))
	for scope, signatures := range c.scopeSignatures {
		sorted := slices.Clone(signatures)
		slices.Sort(sorted)
		out[scope] = sorted
	}
	return out
}

func TestCollectMergeCommutative(t *testing.T) {
	check := func(t *testing.T, a, b *Collection) {
		t.Helper()
		ab := NewCollection()
		ab.Merge(a)
		ab.Merge(b)
		ba := NewCollection()
		ba.Merge(b)
		ba.Merge(a)

		require.Equal(t, candidateSet(ab), candidateSet(ba))
		require.Equal(t, scopeSets(ab), scopeSets(ba))
	}

	t.Run("overlapping", func(t *testing.T) {
		a := CollectParameters(
			tuple("a", "tuple", "struct C.S", elem("x", "uint256")),
			tuple("b", "tuple", "", elem("x", "bool")),
		)
		b := CollectParameters(
			tuple("c", "tuple", "", elem("y", "bool")),
			tuple("d", "tuple", "struct C.S", elem("x", "uint256")),
			tuple("e", "tuple", "struct D.T", elem("x", "uint256")),
		)
		check(t, a, b)

		merged := NewCollection()
		merged.Merge(b)
		merged.Merge(a)
		assert.Equal(t, []string{"C.S (uint256)", "D.T (uint256)", "_ (bool)"}, candidateSet(merged))
	})

	t.Run("generated", func(t *testing.T) {
		g := newABIGen(17)
		for range 20 {
			check(t, Collect(g.abi(4)), Collect(g.abi(4)))
		}
	})
}

func TestCollectMergeNil(t *testing.T) {
	c := CollectParameters(tuple("a", "tuple", "", elem("x", "uint256")))
	c.Merge(nil)
	assert.Equal(t, 1, c.Len())
}

func TestCollectConcurrentlyMatchesCollect(t *testing.T) {
	g := newABIGen(23)
	for _, jobs := range []int{0, 1, 4} {
		entries := g.abi(40)

		got, err := CollectConcurrently(context.Background(), entries, jobs)
		require.NoError(t, err)
		require.Equal(t, Collect(entries), got)
	}
}

func TestCollectConcurrentlyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := newABIGen(5).abi(10)
	_, err := CollectConcurrently(ctx, entries, 2)
	require.ErrorIs(t, err, context.Canceled)
}
