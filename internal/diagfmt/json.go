package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"lintel/internal/diag"
)

// JSON writes the report as indented JSON followed by a newline.
func JSON(w io.Writer, diags []diag.Diagnostic, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(diags, meta))
}

// Msgpack writes the same payload as JSON in MessagePack encoding.
func Msgpack(w io.Writer, diags []diag.Diagnostic, meta Meta) error {
	return msgpack.NewEncoder(w).Encode(BuildReport(diags, meta))
}
