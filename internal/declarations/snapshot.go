package declarations

import (
	"slices"

	"gitlab.com/tozd/go/errors"
)

// ScopeSignatures lists the signatures one scope declares. The global scope
// has an empty Scope.
type ScopeSignatures struct {
	Scope      string   `json:"scope"`
	Signatures []string `json:"signatures"`
}

// Snapshot is the serializable form of a Catalogue.
type Snapshot struct {
	Declarations []Declaration     `json:"declarations"`
	Scopes       []ScopeSignatures `json:"scopes"`
}

func (c *Catalogue) Snapshot() Snapshot {
	out := Snapshot{
		Declarations: slices.Clone(c.declarations),
		Scopes:       make([]ScopeSignatures, 0, len(c.scopes)),
	}
	for _, scope := range c.scopes {
		out.Scopes = append(out.Scopes, ScopeSignatures{
			Scope:      scope,
			Signatures: slices.Clone(c.scopeSignatures[scope]),
		})
	}
	return out
}

// Restore rebuilds a Catalogue from a snapshot and validates it.
func Restore(s Snapshot) (*Catalogue, error) {
	scopes := make([]string, 0, len(s.Scopes))
	scopeSignatures := make(map[string][]string, len(s.Scopes))
	for _, ss := range s.Scopes {
		if _, ok := scopeSignatures[ss.Scope]; ok {
			return nil, errors.Errorf("restoring catalogue: scope '%s' listed twice", ss.Scope)
		}
		scopes = append(scopes, ss.Scope)
		scopeSignatures[ss.Scope] = ss.Signatures
	}

	c := newCatalogue(slices.Clone(s.Declarations), scopes, scopeSignatures)
	if err := c.Validate(); err != nil {
		return nil, errors.Errorf("restoring catalogue: %w", err)
	}
	return c, nil
}
