package diagfmt

import (
	"io"

	"lintel/internal/diag"
)

// Short writes one line per diagnostic: "<severity> <rule> <path>:<line>:<col> <message>".
func Short(w io.Writer, diags []diag.Diagnostic, includeNotes bool) error {
	out := diag.FormatGoldenDiagnostics(diags, includeNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
