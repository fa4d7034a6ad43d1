package abi

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownEntryType = errors.Base("unknown abi entry type")
	ErrMissingABI       = errors.Base("artifact has no abi field")
)

// artifact covers the forge, hardhat and truffle output shapes, all of which
// carry the interface description under "abi".
type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// ParseFile reads an ABI from disk. See Load for the accepted formats.
func ParseFile(path string) (ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading abi %s: %w", path, err)
	}
	return Load(path, data)
}

// Load decodes data read from name. Names ending in .yaml or .yml are decoded
// as YAML, anything else as JSON.
func Load(name string, data []byte) (ABI, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var err error
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, errors.Errorf("decoding yaml abi %s: %w", name, err)
		}
	}

	out, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("parsing abi %s: %w", name, err)
	}
	return out, nil
}

// Parse decodes a JSON ABI. Both a bare entry list and an artifact object with
// an "abi" key are accepted.
func Parse(data []byte) (ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty abi")
	}

	if data[0] == '{' {
		var a artifact
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, errors.Errorf("decoding artifact: %w", err)
		}
		if len(a.ABI) == 0 {
			return nil, errors.WithStack(ErrMissingABI)
		}
		data = a.ABI
	}

	var out ABI
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Errorf("decoding entries: %w", err)
	}

	for i := range out {
		// Entries without a type are functions by ABI convention
		if out[i].Type == "" {
			out[i].Type = Function
		}
		if !out[i].Type.Valid() {
			return nil, errors.Errorf("%w: entry %d has type '%s'", ErrUnknownEntryType, i, out[i].Type)
		}
	}

	return out, nil
}

// yamlToJSON re-encodes a YAML document as JSON so the go-ethereum json tags on
// Parameter apply unchanged.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
