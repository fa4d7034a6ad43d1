// Package declarations discovers every struct type used by an ABI, deduplicates
// structurally identical ones, names the anonymous ones and resolves the
// references between them.
//
// The pipeline runs one way: Classify is applied per parameter by Collect, whose
// Collection is turned into an immutable Catalogue by Resolve. Emitters only
// ever talk to the Catalogue.
package declarations

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/abi"
)

const tuplePrefix = "tuple"

// Identifier names a struct declaration. An empty Scope means the struct is
// declared globally, otherwise Scope is the enclosing contract or interface.
type Identifier struct {
	Name  string `json:"name"`
	Scope string `json:"scope,omitempty"`
}

// Global reports whether the identifier has no enclosing scope.
func (id Identifier) Global() bool {
	return id.Scope == ""
}

// String returns the qualified name as Solidity would spell it.
func (id Identifier) String() string {
	if id.Global() {
		return id.Name
	}
	return id.Scope + "." + id.Name
}

// Kind discriminates the Type union.
type Kind uint8

const (
	KindElementary Kind = iota
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindElementary:
		return "elementary"
	case KindStruct:
		return "struct"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "elementary":
		*k = KindElementary
	case "struct":
		*k = KindStruct
	default:
		return errors.Errorf("unknown type kind '%s'", text)
	}
	return nil
}

// Type is the classified type of a parameter or struct component.
//
// For KindStruct, Components holds the raw tuple components and Identifier the
// declaration the type refers to. Identifier is only optional before
// resolution; every struct Type handed out by a Catalogue has one.
type Type struct {
	Kind       Kind            `json:"kind"`
	RawType    string          `json:"type"`
	Components []abi.Parameter `json:"components,omitempty"`
	Identifier *Identifier     `json:"identifier,omitempty"`
}

func (t Type) IsStruct() bool {
	return t.Kind == KindStruct
}

// ArraySuffix returns the array dimensions trailing a struct type, e.g. "[]"
// for "tuple[]". Elementary types have no suffix.
func (t Type) ArraySuffix() string {
	if !t.IsStruct() {
		return ""
	}
	return strings.TrimPrefix(t.RawType, tuplePrefix)
}

// Component is a single named member of a struct declaration.
type Component struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Declaration is one named struct type.
type Declaration struct {
	Identifier Identifier  `json:"identifier"`
	Signature  string      `json:"signature"`
	Components []Component `json:"components"`
}
