package declarations

import (
	"slices"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/abi"
)

var (
	ErrDuplicateIdentifier = errors.Base("duplicate struct identifier")
	ErrDanglingReference   = errors.Base("dangling struct reference")
)

// Catalogue is the resolved, immutable set of struct declarations of one ABI.
// Declarations are kept in document order; components refer to each other by
// Identifier only, which is what lets mutually recursive shapes exist without
// pointer cycles.
//
// Slices returned by a Catalogue share backing arrays with it and must be
// treated as read-only.
type Catalogue struct {
	declarations    []Declaration
	bySignature     map[string][]int
	byIdentifier    map[Identifier]int
	duplicates      []Identifier
	scopes          []string
	scopeSignatures map[string][]string
}

func newCatalogue(decls []Declaration, scopes []string, scopeSignatures map[string][]string) *Catalogue {
	c := &Catalogue{
		declarations:    decls,
		bySignature:     make(map[string][]int),
		byIdentifier:    make(map[Identifier]int, len(decls)),
		scopes:          slices.Clone(scopes),
		scopeSignatures: make(map[string][]string, len(scopeSignatures)),
	}
	for scope, signatures := range scopeSignatures {
		c.scopeSignatures[scope] = slices.Clone(signatures)
	}
	for i, d := range decls {
		c.bySignature[d.Signature] = append(c.bySignature[d.Signature], i)
		if _, ok := c.byIdentifier[d.Identifier]; ok {
			c.duplicates = append(c.duplicates, d.Identifier)
			continue
		}
		c.byIdentifier[d.Identifier] = i
	}
	return c
}

// IsEmpty reports whether the ABI uses no struct types at all.
func (c *Catalogue) IsEmpty() bool {
	return len(c.declarations) == 0
}

// Len returns the number of declarations.
func (c *Catalogue) Len() int {
	return len(c.declarations)
}

// AllDeclarations returns every declaration regardless of scope.
func (c *Catalogue) AllDeclarations() []Declaration {
	return slices.Clone(c.declarations)
}

// GlobalDeclarations returns the declarations without an enclosing scope.
func (c *Catalogue) GlobalDeclarations() []Declaration {
	return c.declarationsIn("")
}

// ScopeDeclarations returns the declarations whose identifier is scoped to
// scope. The empty scope name never matches; use GlobalDeclarations.
func (c *Catalogue) ScopeDeclarations(scope string) []Declaration {
	if scope == "" {
		return nil
	}
	return c.declarationsIn(scope)
}

// A signature may be declared in several scopes, so membership of the
// signature alone is not enough: each declaration's own scope must match.
func (c *Catalogue) declarationsIn(scope string) []Declaration {
	var out []Declaration
	for _, signature := range c.scopeSignatures[scope] {
		for _, i := range c.bySignature[signature] {
			if c.declarations[i].Identifier.Scope == scope {
				out = append(out, c.declarations[i])
			}
		}
	}
	return out
}

// ScopeNames returns every scope that declares at least one struct, in the
// order they were first seen.
func (c *Catalogue) ScopeNames() []string {
	out := make([]string, 0, len(c.scopes))
	for _, scope := range c.scopes {
		if scope != "" {
			out = append(out, scope)
		}
	}
	return out
}

// IdentifierDeclaration looks a declaration up by exact name and scope.
func (c *Catalogue) IdentifierDeclaration(id Identifier) (Declaration, bool) {
	i, ok := c.byIdentifier[id]
	if !ok {
		return Declaration{}, false
	}
	return c.declarations[i], true
}

// SignatureDeclarations returns the declarations sharing signature, first
// declared first.
func (c *Catalogue) SignatureDeclarations(signature string) []Declaration {
	idx := c.bySignature[signature]
	out := make([]Declaration, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.declarations[i])
	}
	return out
}

// TypeForParameter classifies p and, for struct types, attaches the identifier
// of the first declaration with a matching signature. The parameter's own hint
// is not consulted.
func (c *Catalogue) TypeForParameter(p abi.Parameter) (Type, error) {
	t := Classify(p)
	if !t.IsStruct() {
		return t, nil
	}

	signature := Signature(p.Components)
	matches := c.bySignature[signature]
	if len(matches) == 0 {
		return Type{}, errors.Errorf("parameter '%s': %w %s", p.Name, ErrUnknownSignature, signature)
	}

	id := c.declarations[matches[0]].Identifier
	t.Identifier = &id
	return t, nil
}

// CheckUnique reports every identifier carried by more than one declaration.
func (c *Catalogue) CheckUnique() error {
	var errs []error
	for _, id := range c.duplicates {
		errs = append(errs, errors.Errorf("%w: %s", ErrDuplicateIdentifier, id))
	}
	return errors.Join(errs...)
}

// Validate checks that identifiers are unique and that every struct component
// refers to a declaration of this catalogue.
func (c *Catalogue) Validate() error {
	errs := []error{c.CheckUnique()}
	for _, d := range c.declarations {
		for _, component := range d.Components {
			if !component.Type.IsStruct() {
				continue
			}
			if component.Type.Identifier == nil {
				errs = append(errs, errors.Errorf("%w: %s.%s is unresolved", ErrDanglingReference, d.Identifier, component.Name))
				continue
			}
			if _, ok := c.byIdentifier[*component.Type.Identifier]; !ok {
				errs = append(errs, errors.Errorf("%w: %s.%s refers to %s", ErrDanglingReference, d.Identifier, component.Name, component.Type.Identifier))
			}
		}
	}
	return errors.Join(errs...)
}
