package emit

import (
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/declarations"
)

type SolidityOptions struct {
	License string // SPDX identifier, omitted when empty
	Pragma  string // version constraint, omitted when empty
}

// Solidity writes the catalogue as Solidity source. Global declarations are
// emitted at file level and every scope becomes an interface holding its
// structs, so references keep their Scope.Name spelling.
func Solidity(w io.Writer, cat *declarations.Catalogue, opts SolidityOptions) error {
	g := newPrinter("    ")
	if opts.License != "" {
		g.P("// SPDX-License-Identifier: ", opts.License)
	}
	if opts.Pragma != "" {
		g.P("pragma solidity ", opts.Pragma, ";")
	}
	g.P()
	g.P("// Code generated by abistructs. DO NOT EDIT.")

	for _, d := range cat.GlobalDeclarations() {
		g.P()
		solidityStruct(g, d)
	}

	for _, scope := range cat.ScopeNames() {
		g.P()
		g.P("interface ", scope, " {")
		g.In()
		for i, d := range cat.ScopeDeclarations(scope) {
			if i > 0 {
				g.P()
			}
			solidityStruct(g, d)
		}
		g.Out()
		g.P("}")
	}

	_, err := g.WriteTo(w)
	return errors.WithStack(err)
}

func solidityStruct(g *printer, d declarations.Declaration) {
	g.P("struct ", d.Identifier.Name, " {")
	g.In()
	for i, c := range d.Components {
		g.P(solidityType(c.Type), " ", memberName(c.Name, i, "_"), ";")
	}
	g.Out()
	g.P("}")
}

func solidityType(t declarations.Type) string {
	if t.IsStruct() && t.Identifier != nil {
		return t.Identifier.String() + t.ArraySuffix()
	}
	return t.RawType
}
