package declarations

import (
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/abi"
)

// ErrUnknownSignature means a struct type was looked up by signature and no
// declaration was collected for it. Collect visits every reachable tuple, so
// this is always an internal inconsistency and never a property of the input.
var ErrUnknownSignature = errors.Base("unknown declaration for signature")

const syntheticNamePrefix = "S_"

// namer hands out synthetic names in call order, skipping names an explicit
// hint already claimed.
type namer struct {
	next  int
	taken map[Identifier]struct{}
}

func (n *namer) name() Identifier {
	for {
		id := Identifier{Name: fmt.Sprintf("%s%d", syntheticNamePrefix, n.next)}
		n.next++
		if _, ok := n.taken[id]; ok {
			continue
		}
		n.taken[id] = struct{}{}
		return id
	}
}

// Build collects and resolves entries in one go.
func Build(entries abi.ABI) (*Catalogue, error) {
	return Resolve(Collect(entries))
}

// Resolve names every anonymous candidate, back-fills every struct component
// with the identifier of its declaration and returns the resulting catalogue.
// The collection is not modified, so resolving it twice yields identical
// catalogues.
func Resolve(c *Collection) (*Catalogue, error) {
	decls := completeNames(c)

	bySignature := make(map[string][]int, len(c.bySignature))
	for i, d := range decls {
		bySignature[d.Signature] = append(bySignature[d.Signature], i)
	}

	for i := range decls {
		components, err := backfill(decls[i].Components, decls, bySignature)
		if err != nil {
			return nil, errors.Errorf("resolving struct %s: %w", decls[i].Identifier, err)
		}
		decls[i].Components = components
	}

	return newCatalogue(decls, c.scopes, c.scopeSignatures), nil
}

// completeNames walks candidates in document order and turns each into a
// declaration, synthesizing an identifier where none was hinted.
func completeNames(c *Collection) []Declaration {
	n := &namer{taken: make(map[Identifier]struct{})}
	for _, cand := range c.candidates {
		if cand.identifier != nil {
			n.taken[*cand.identifier] = struct{}{}
		}
	}

	out := make([]Declaration, 0, len(c.candidates))
	for _, cand := range c.candidates {
		var id Identifier
		if cand.identifier != nil {
			id = *cand.identifier
		} else {
			id = n.name()
		}
		out = append(out, Declaration{
			Identifier: id,
			Signature:  cand.signature,
			Components: cand.components,
		})
	}
	return out
}

// backfill returns a copy of components with every anonymous struct reference
// pointed at the first declaration sharing its signature.
func backfill(components []Component, decls []Declaration, bySignature map[string][]int) ([]Component, error) {
	out := make([]Component, len(components))
	copy(out, components)

	for i := range out {
		t := &out[i].Type
		if !t.IsStruct() || t.Identifier != nil {
			continue
		}

		signature := Signature(t.Components)
		matches := bySignature[signature]
		if len(matches) == 0 {
			return nil, errors.Errorf("component '%s': %w %s", out[i].Name, ErrUnknownSignature, signature)
		}

		id := decls[matches[0]].Identifier
		t.Identifier = &id
	}
	return out, nil
}
