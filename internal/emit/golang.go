package emit

import (
	"fmt"
	"io"
	"path"
	"strconv"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"gitlab.com/tozd/go/errors"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/jshufro/abistructs/internal/declarations"
)

var (
	bigInt = protogen.GoIdent{
		GoName:       "Int",
		GoImportPath: "math/big",
	}
	address = protogen.GoIdent{
		GoName:       "Address",
		GoImportPath: "github.com/ethereum/go-ethereum/common",
	}
	hash = protogen.GoIdent{
		GoName:       "Hash",
		GoImportPath: "github.com/ethereum/go-ethereum/common",
	}
)

type GoOptions struct {
	ImportPath   string // package name is the last path element
	ProtoPackage string // only used to qualify names while generating
}

// Go writes the catalogue as Go struct types laid out the way go-ethereum's
// abi package packs and unpacks tuples. Type names come from protogen, so a
// scoped declaration Vault.Position becomes Vault_Position.
func Go(w io.Writer, cat *declarations.Catalogue, opts GoOptions) error {
	importPath := opts.ImportPath
	if importPath == "" {
		importPath = "abistructs"
	}
	pkgName := identifier(path.Base(importPath))

	fd, err := buildDescriptor(cat, ProtoOptions{
		Package:   opts.ProtoPackage,
		GoPackage: importPath + ";" + pkgName,
	}, true)
	if err != nil {
		return err
	}

	plugin, err := protogen.Options{}.New(&pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{fd.GetName()},
		ProtoFile:      []*descriptorpb.FileDescriptorProto{fd},
	})
	if err != nil {
		return errors.Errorf("preparing go generator: %w", err)
	}
	f := plugin.FilesByPath[fd.GetName()]

	structs, idents := pairMessages(cat, f)

	g := plugin.NewGeneratedFile(f.GeneratedFilenamePrefix+".abi.go", f.GoImportPath)
	g.P("// Code generated by abistructs. DO NOT EDIT.")
	g.P()
	g.P("package ", f.GoPackageName)
	for _, s := range structs {
		g.P()
		if err := generateStruct(g, s, idents); err != nil {
			return err
		}
	}

	resp := plugin.Response()
	if resp.Error != nil {
		return errors.Errorf("generating go: %s", resp.GetError())
	}
	for _, file := range resp.File {
		if _, err := io.WriteString(w, file.GetContent()); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

type goStruct struct {
	decl    declarations.Declaration
	message *protogen.Message
}

// pairMessages lines declarations up with the messages ProtoDescriptor built
// for them: globals first, then one container message per scope.
func pairMessages(cat *declarations.Catalogue, f *protogen.File) ([]goStruct, map[declarations.Identifier]protogen.GoIdent) {
	var out []goStruct
	idents := make(map[declarations.Identifier]protogen.GoIdent)
	add := func(d declarations.Declaration, m *protogen.Message) {
		out = append(out, goStruct{decl: d, message: m})
		idents[d.Identifier] = m.GoIdent
	}

	globals := cat.GlobalDeclarations()
	for i, d := range globals {
		add(d, f.Messages[i])
	}
	for i, scope := range cat.ScopeNames() {
		outer := f.Messages[len(globals)+i]
		for j, d := range cat.ScopeDeclarations(scope) {
			add(d, outer.Messages[j])
		}
	}
	return out, idents
}

func generateStruct(g *protogen.GeneratedFile, s goStruct, idents map[declarations.Identifier]protogen.GoIdent) error {
	g.P("// ", s.message.GoIdent.GoName, " mirrors ", s.decl.Identifier, " ", s.decl.Signature, ".")
	g.P("type ", s.message.GoIdent, " struct {")
	for i, c := range s.decl.Components {
		typ, err := goType(g, c.Type, idents)
		if err != nil {
			return errors.Errorf("%s.%s: %w", s.decl.Identifier, c.Name, err)
		}
		field := s.message.Fields[i]
		if c.Name == "" {
			g.P(field.GoName, " ", typ)
			continue
		}
		g.P(field.GoName, " ", typ, " `abi:", strconv.Quote(c.Name), "`")
	}
	g.P("}")
	return nil
}

func goType(g *protogen.GeneratedFile, t declarations.Type, idents map[declarations.Identifier]protogen.GoIdent) (string, error) {
	if t.IsStruct() {
		if t.Identifier == nil {
			return "", errors.New("unresolved struct reference")
		}
		ident, ok := idents[*t.Identifier]
		if !ok {
			return "", errors.Errorf("no go type for %s", t.Identifier)
		}
		arrays, err := goArrays(t.ArraySuffix())
		if err != nil {
			return "", err
		}
		return arrays + g.QualifiedGoIdent(ident), nil
	}

	base, suffix := splitArray(t.RawType)
	arrays, err := goArrays(suffix)
	if err != nil {
		return "", err
	}
	leaf, err := goScalar(g, base)
	if err != nil {
		return "", err
	}
	return arrays + leaf, nil
}

// goScalar follows go-ethereum's reflection mapping: integers up to 64 bits
// use native types, wider ones *big.Int.
func goScalar(g *protogen.GeneratedFile, base string) (string, error) {
	t, err := elementaryType(base)
	if err != nil {
		return "", err
	}
	switch t.T {
	case gethabi.IntTy, gethabi.UintTy:
		switch t.Size {
		case 8, 16, 32, 64:
			if t.T == gethabi.IntTy {
				return fmt.Sprintf("int%d", t.Size), nil
			}
			return fmt.Sprintf("uint%d", t.Size), nil
		}
		return "*" + g.QualifiedGoIdent(bigInt), nil
	case gethabi.FixedPointTy:
		return "*" + g.QualifiedGoIdent(bigInt), nil
	case gethabi.BoolTy:
		return "bool", nil
	case gethabi.StringTy:
		return "string", nil
	case gethabi.AddressTy:
		return g.QualifiedGoIdent(address), nil
	case gethabi.HashTy:
		return g.QualifiedGoIdent(hash), nil
	case gethabi.BytesTy:
		return "[]byte", nil
	case gethabi.FixedBytesTy:
		return fmt.Sprintf("[%d]byte", t.Size), nil
	case gethabi.FunctionTy:
		return "[24]byte", nil
	}
	return "", errors.Errorf("%w '%s'", ErrUnsupportedType, base)
}
