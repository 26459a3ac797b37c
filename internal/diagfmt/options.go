package diagfmt

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lintel/internal/observ"
	"lintel/internal/quality"
)

// Format selects an output renderer.
type Format string

const (
	FormatPretty  Format = "pretty"
	FormatShort   Format = "short"
	FormatJSON    Format = "json"
	FormatSARIF   Format = "sarif"
	FormatMsgpack Format = "msgpack"
)

// Formats lists every supported format in help order.
var Formats = []Format{FormatPretty, FormatShort, FormatJSON, FormatSARIF, FormatMsgpack}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (expected: pretty|short|json|sarif|msgpack)", s)
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool { return f == FormatMsgpack }

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Max       int // 0 - без ограничения
	ShowNotes bool
	// HideSuppressed drops suppressed diagnostics from the listing only.
	HideSuppressed bool
	// ShowSource prints the offending line with a caret underline.
	ShowSource bool
	Summary    bool
	// Quality, when set, is printed under the summary.
	Quality *quality.Report
}

// Meta describes the run a report belongs to.
type Meta struct {
	RunID       uuid.UUID
	ToolName    string
	ToolVersion string
	InfoURI     string
	Timings     *observ.Report
	Quality     *quality.Report
}
