package emit

import (
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"gitlab.com/tozd/go/errors"
)

var ErrUnsupportedType = errors.Base("unsupported abi type")

// splitArray separates an ABI type into its base and array suffix:
// "uint256[2][]" becomes "uint256" and "[2][]".
func splitArray(raw string) (base, suffix string) {
	if i := strings.IndexByte(raw, '['); i >= 0 {
		return raw[:i], raw[i:]
	}
	return raw, ""
}

func isFixedPoint(base string) bool {
	return strings.HasPrefix(base, "fixed") || strings.HasPrefix(base, "ufixed")
}

// elementaryType parses a base type with go-ethereum. Fixed point types are
// not understood by go-ethereum and are reported as FixedPointTy.
func elementaryType(base string) (gethabi.Type, error) {
	if isFixedPoint(base) {
		return gethabi.Type{T: gethabi.FixedPointTy}, nil
	}
	t, err := gethabi.NewType(base, "", nil)
	if err != nil {
		return gethabi.Type{}, errors.Errorf("%w '%s': %s", ErrUnsupportedType, base, err.Error())
	}
	return t, nil
}

// goArrays renders an ABI array suffix in Go syntax. ABI dimensions read right
// to left, so "[2][]" is a slice of two-element arrays: "[][2]".
func goArrays(suffix string) (string, error) {
	if suffix == "" {
		return "", nil
	}
	t, err := gethabi.NewType("bool"+suffix, "", nil)
	if err != nil {
		return "", errors.Errorf("%w: array suffix '%s': %s", ErrUnsupportedType, suffix, err.Error())
	}
	var b strings.Builder
	for t.T == gethabi.SliceTy || t.T == gethabi.ArrayTy {
		if t.T == gethabi.SliceTy {
			b.WriteString("[]")
		} else {
			fmt.Fprintf(&b, "[%d]", t.Size)
		}
		t = *t.Elem
	}
	return b.String(), nil
}

func arrayDepth(suffix string) int {
	return strings.Count(suffix, "[")
}

// identifier replaces anything that is not valid in a proto or Go identifier.
// Solidity allows '$', neither target does.
func identifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// memberName picks a name for the i-th struct component, falling back to a
// positional name for unnamed components.
func memberName(name string, i int, fallback string) string {
	if name == "" {
		return fmt.Sprintf("%s%d", fallback, i)
	}
	return name
}
