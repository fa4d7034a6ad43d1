// Package abi holds the in-memory representation of a contract ABI as consumed by
// the declaration resolver, plus loaders for the common on-disk encodings.
package abi

import (
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// Parameter is a single entry parameter or tuple component.
// Type is either an elementary type ("uint256", "bytes32[]", ...) or "tuple"
// followed by an optional array suffix, in which case Components is populated.
type Parameter = gethabi.ArgumentMarshaling

// EntryType is the "type" field of an ABI entry.
type EntryType string

const (
	Function    EntryType = "function"
	Constructor EntryType = "constructor"
	Event       EntryType = "event"
	Error       EntryType = "error"
	Fallback    EntryType = "fallback"
	Receive     EntryType = "receive"
)

// Valid reports whether t is one of the six known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case Function, Constructor, Event, Error, Fallback, Receive:
		return true
	}
	return false
}

// In-memory representation of a single ABI entry
type Entry struct {
	Type            EntryType   `json:"type"`
	Name            string      `json:"name,omitempty"`
	Inputs          []Parameter `json:"inputs,omitempty"`
	Outputs         []Parameter `json:"outputs,omitempty"` // functions only
	StateMutability string      `json:"stateMutability,omitempty"`
	Anonymous       bool        `json:"anonymous,omitempty"` // events only
}

// In-memory representation of a full ABI, in declaration order
type ABI []Entry
