package emit

import (
	"encoding/json"
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/declarations"
)

// JSON writes the catalogue snapshot, the same document declarations.Restore
// accepts.
func JSON(w io.Writer, cat *declarations.Catalogue) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(cat.Snapshot()))
}
