// Package emit renders a resolved catalogue as source in one of the supported
// output formats.
package emit

import (
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/declarations"
)

var ErrUnknownFormat = errors.Base("unknown output format")

type Format string

const (
	FormatSolidity Format = "sol"
	FormatProto    Format = "proto"
	FormatGo       Format = "go"
	FormatJSON     Format = "json"
)

var Formats = []Format{FormatSolidity, FormatProto, FormatGo, FormatJSON}

func (f Format) Valid() bool {
	switch f {
	case FormatSolidity, FormatProto, FormatGo, FormatJSON:
		return true
	}
	return false
}

// Extension is the file extension conventionally used for f.
func (f Format) Extension() string {
	if f == FormatGo {
		return ".abi.go"
	}
	return "." + string(f)
}

type Options struct {
	License        string
	SolidityPragma string
	ProtoPackage   string
	GoPackage      string
}

func Write(w io.Writer, cat *declarations.Catalogue, format Format, opts Options) error {
	switch format {
	case FormatSolidity:
		return Solidity(w, cat, SolidityOptions{License: opts.License, Pragma: opts.SolidityPragma})
	case FormatProto:
		return Proto(w, cat, ProtoOptions{Package: opts.ProtoPackage, GoPackage: opts.GoPackage})
	case FormatGo:
		return Go(w, cat, GoOptions{ImportPath: opts.GoPackage, ProtoPackage: opts.ProtoPackage})
	case FormatJSON:
		return JSON(w, cat)
	}
	return errors.WithDetails(ErrUnknownFormat, "format", string(format))
}
