package emit

import (
	"fmt"
	"io"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"gitlab.com/tozd/go/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jshufro/abistructs/internal/declarations"
)

const protoFileName = "abistructs.proto"

type ProtoOptions struct {
	Package   string
	GoPackage string // go_package option, omitted when empty
}

// ProtoDescriptor maps the catalogue onto a proto3 file: one message per global
// declaration and one message per scope with that scope's declarations nested
// inside it. Catalogues with duplicate identifiers fail with
// declarations.ErrDuplicateIdentifier. The result is validated with protodesc
// before it is returned.
func ProtoDescriptor(cat *declarations.Catalogue, opts ProtoOptions) (*descriptorpb.FileDescriptorProto, error) {
	return buildDescriptor(cat, opts, false)
}

// buildDescriptor is ProtoDescriptor, optionally flattening nested arrays into
// a single repeated field for targets that only need the message layout.
func buildDescriptor(cat *declarations.Catalogue, opts ProtoOptions, flattenArrays bool) (*descriptorpb.FileDescriptorProto, error) {
	// message names are identifiers, so they must be unique
	if err := cat.CheckUnique(); err != nil {
		return nil, err
	}

	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFileName),
		Package: proto.String(opts.Package),
		Syntax:  proto.String("proto3"),
	}
	if opts.GoPackage != "" {
		fd.Options = &descriptorpb.FileOptions{GoPackage: proto.String(opts.GoPackage)}
	}

	for _, d := range cat.GlobalDeclarations() {
		m, err := protoMessage(opts.Package, d, flattenArrays)
		if err != nil {
			return nil, err
		}
		fd.MessageType = append(fd.MessageType, m)
	}

	for _, scope := range cat.ScopeNames() {
		outer := &descriptorpb.DescriptorProto{Name: proto.String(identifier(scope))}
		for _, d := range cat.ScopeDeclarations(scope) {
			m, err := protoMessage(opts.Package, d, flattenArrays)
			if err != nil {
				return nil, err
			}
			outer.NestedType = append(outer.NestedType, m)
		}
		fd.MessageType = append(fd.MessageType, outer)
	}

	if _, err := protodesc.NewFile(fd, new(protoregistry.Files)); err != nil {
		return nil, errors.Errorf("invalid proto descriptor: %w", err)
	}
	return fd, nil
}

func protoMessage(pkg string, d declarations.Declaration, flattenArrays bool) (*descriptorpb.DescriptorProto, error) {
	out := &descriptorpb.DescriptorProto{Name: proto.String(identifier(d.Identifier.Name))}

	used := make(map[string]struct{}, len(d.Components))
	for i, c := range d.Components {
		field := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(protoFieldName(c.Name, i, used)),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}

		var suffix string
		if c.Type.IsStruct() {
			if c.Type.Identifier == nil {
				return nil, errors.Errorf("%s.%s: unresolved struct reference", d.Identifier, c.Name)
			}
			suffix = c.Type.ArraySuffix()
			field.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			field.TypeName = proto.String(protoTypeName(pkg, *c.Type.Identifier))
		} else {
			var base string
			base, suffix = splitArray(c.Type.RawType)
			typ, err := protoScalar(base)
			if err != nil {
				return nil, errors.Errorf("%s.%s: %w", d.Identifier, c.Name, err)
			}
			field.Type = typ.Enum()
		}

		switch depth := arrayDepth(suffix); {
		case depth == 0:
		case depth == 1 || flattenArrays:
			field.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		default:
			return nil, errors.Errorf("%w: %s.%s is a nested array", ErrUnsupportedType, d.Identifier, c.Name)
		}

		out.Field = append(out.Field, field)
	}
	return out, nil
}

// protoScalar maps an elementary ABI type to the narrowest proto scalar able to
// hold it. Integers wider than 64 bits and all byte-like types travel as bytes.
func protoScalar(base string) (descriptorpb.FieldDescriptorProto_Type, error) {
	t, err := elementaryType(base)
	if err != nil {
		return 0, err
	}
	switch t.T {
	case gethabi.BoolTy:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL, nil
	case gethabi.StringTy, gethabi.FixedPointTy:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING, nil
	case gethabi.IntTy:
		switch {
		case t.Size <= 32:
			return descriptorpb.FieldDescriptorProto_TYPE_INT32, nil
		case t.Size <= 64:
			return descriptorpb.FieldDescriptorProto_TYPE_INT64, nil
		}
	case gethabi.UintTy:
		switch {
		case t.Size <= 32:
			return descriptorpb.FieldDescriptorProto_TYPE_UINT32, nil
		case t.Size <= 64:
			return descriptorpb.FieldDescriptorProto_TYPE_UINT64, nil
		}
	}
	return descriptorpb.FieldDescriptorProto_TYPE_BYTES, nil
}

func protoTypeName(pkg string, id declarations.Identifier) string {
	parts := []string{""}
	if pkg != "" {
		parts = append(parts, pkg)
	}
	if !id.Global() {
		parts = append(parts, identifier(id.Scope))
	}
	parts = append(parts, identifier(id.Name))
	return strings.Join(parts, ".")
}

// protoFieldName returns a field name unique within used. proto3 also rejects
// fields whose JSON names collide, so uniqueness ignores case and underscores.
func protoFieldName(name string, i int, used map[string]struct{}) string {
	n := identifier(memberName(name, i+1, "field_"))
	key := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", ""))
	}
	for candidate, j := n, 1; ; j++ {
		if _, ok := used[key(candidate)]; !ok {
			used[key(candidate)] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", n, j)
	}
}

// Proto writes the catalogue as a .proto file.
func Proto(w io.Writer, cat *declarations.Catalogue, opts ProtoOptions) error {
	fd, err := ProtoDescriptor(cat, opts)
	if err != nil {
		return err
	}

	g := newPrinter("  ")
	g.P("// Code generated by abistructs. DO NOT EDIT.")
	g.P()
	g.P(`syntax = "proto3";`)
	if fd.GetPackage() != "" {
		g.P()
		g.P("package ", fd.GetPackage(), ";")
	}
	if goPackage := fd.GetOptions().GetGoPackage(); goPackage != "" {
		g.P()
		g.P(`option go_package = "`, goPackage, `";`)
	}
	for _, m := range fd.MessageType {
		g.P()
		printMessage(g, m)
	}

	_, err = g.WriteTo(w)
	return errors.WithStack(err)
}

func printMessage(g *printer, m *descriptorpb.DescriptorProto) {
	g.P("message ", m.GetName(), " {")
	g.In()
	for i, nested := range m.NestedType {
		if i > 0 {
			g.P()
		}
		printMessage(g, nested)
	}
	for _, f := range m.Field {
		label := ""
		if f.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			label = "repeated "
		}
		g.P(label, protoTypeKeyword(f), " ", f.GetName(), " = ", f.GetNumber(), ";")
	}
	g.Out()
	g.P("}")
}

func protoTypeKeyword(f *descriptorpb.FieldDescriptorProto) string {
	if f.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
		return f.GetTypeName()
	}
	return strings.ToLower(strings.TrimPrefix(f.GetType().String(), "TYPE_"))
}
