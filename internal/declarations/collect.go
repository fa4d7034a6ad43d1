package declarations

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jshufro/abistructs/internal/abi"
)

// candidate is a struct declaration seen during collection. identifier is nil
// when the parameter carried no usable struct hint.
type candidate struct {
	identifier *Identifier
	signature  string
	components []Component
}

func (c *candidate) scope() string {
	if c.identifier == nil {
		return ""
	}
	return c.identifier.Scope
}

// coalesces reports whether two candidates of the same signature describe the
// same declaration: both anonymous, or both named identically.
func (c *candidate) coalesces(other *candidate) bool {
	if c.identifier == nil || other.identifier == nil {
		return c.identifier == nil && other.identifier == nil
	}
	return *c.identifier == *other.identifier
}

// Collection is the output of the collector: candidate declarations in
// document order, grouped by signature, plus the signatures each scope
// declares. The global scope is keyed by "".
type Collection struct {
	candidates      []*candidate
	bySignature     map[string][]int
	scopes          []string
	scopeSignatures map[string][]string
}

func NewCollection() *Collection {
	return &Collection{
		bySignature:     make(map[string][]int),
		scopeSignatures: make(map[string][]string),
	}
}

// Len returns the number of distinct candidates collected so far.
func (c *Collection) Len() int {
	return len(c.candidates)
}

// Merge folds other into c. Candidates of other that coalesce with one already
// in c are dropped (the first occurrence wins), the rest are appended in
// other's order. Scope signature lists are unioned.
func (c *Collection) Merge(other *Collection) {
	if other == nil {
		return
	}
	for _, cand := range other.candidates {
		c.addCandidate(cand)
	}
	for _, scope := range other.scopes {
		for _, signature := range other.scopeSignatures[scope] {
			c.addScopeSignature(scope, signature)
		}
	}
}

func (c *Collection) addCandidate(cand *candidate) {
	for _, i := range c.bySignature[cand.signature] {
		if c.candidates[i].coalesces(cand) {
			return
		}
	}
	c.bySignature[cand.signature] = append(c.bySignature[cand.signature], len(c.candidates))
	c.candidates = append(c.candidates, cand)
}

func (c *Collection) addScopeSignature(scope, signature string) {
	existing, ok := c.scopeSignatures[scope]
	if !ok {
		c.scopes = append(c.scopes, scope)
	}
	for _, s := range existing {
		if s == signature {
			return
		}
	}
	c.scopeSignatures[scope] = append(existing, signature)
}

// Collect walks every entry of entries in order.
func Collect(entries abi.ABI) *Collection {
	out := NewCollection()
	for _, entry := range entries {
		out.Merge(collectEntry(entry))
	}
	return out
}

// CollectParameters collects the declarations reachable from a bare list of
// parameters, as if they were the inputs of a single entry.
func CollectParameters(params ...abi.Parameter) *Collection {
	out := NewCollection()
	for _, p := range params {
		out.collectParameter(p)
	}
	return out
}

// CollectConcurrently collects every entry on its own worker and folds the
// per-entry results in entry order, so the result is identical to Collect.
// jobs <= 0 uses GOMAXPROCS workers.
func CollectConcurrently(ctx context.Context, entries abi.ABI, jobs int) (*Collection, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each worker owns one slot, no locking needed
	results := make([]*Collection, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = collectEntry(entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := NewCollection()
	for _, r := range results {
		out.Merge(r)
	}
	return out, nil
}

func collectEntry(entry abi.Entry) *Collection {
	out := NewCollection()

	var params []abi.Parameter
	switch entry.Type {
	case abi.Function:
		params = make([]abi.Parameter, 0, len(entry.Inputs)+len(entry.Outputs))
		params = append(params, entry.Inputs...)
		params = append(params, entry.Outputs...)
	case abi.Constructor, abi.Event, abi.Error:
		params = entry.Inputs
	case abi.Fallback, abi.Receive:
		return out
	}

	for _, p := range params {
		out.collectParameter(p)
	}
	return out
}

// collectParameter records p's own candidate before descending into its
// components, which fixes the order synthetic names are handed out in.
func (c *Collection) collectParameter(p abi.Parameter) {
	t := Classify(p)
	if !t.IsStruct() {
		return
	}

	cand := &candidate{
		identifier: t.Identifier,
		signature:  Signature(p.Components),
		components: classifyComponents(p.Components),
	}
	c.addCandidate(cand)
	c.addScopeSignature(cand.scope(), cand.signature)

	for _, component := range p.Components {
		c.collectParameter(component)
	}
}
