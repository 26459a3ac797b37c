package diagfmt

import (
	"lintel/internal/diag"
	"lintel/internal/observ"
	"lintel/internal/quality"
	"lintel/internal/source"
)

// LocationJSON is a resolved position; lines and columns are 1-based.
type LocationJSON struct {
	File      string `json:"file" msgpack:"file"`
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`
	StartLine uint32 `json:"start_line" msgpack:"start_line"`
	StartCol  uint32 `json:"start_col" msgpack:"start_col"`
	EndLine   uint32 `json:"end_line" msgpack:"end_line"`
	EndCol    uint32 `json:"end_col" msgpack:"end_col"`
}

type NoteJSON struct {
	Message  string       `json:"message" msgpack:"message"`
	Location LocationJSON `json:"location" msgpack:"location"`
}

// DiagnosticJSON is one diagnostic in machine-readable reports.
type DiagnosticJSON struct {
	Rule       string            `json:"rule" msgpack:"rule"`
	Severity   string            `json:"severity" msgpack:"severity"`
	Message    string            `json:"message" msgpack:"message"`
	Location   LocationJSON      `json:"location" msgpack:"location"`
	Suppressed bool              `json:"suppressed" msgpack:"suppressed"`
	Data       map[string]string `json:"data,omitempty" msgpack:"data,omitempty"`
	Notes      []NoteJSON        `json:"notes,omitempty" msgpack:"notes,omitempty"`
}

// Report is the payload shared by the json and msgpack formats.
type Report struct {
	RunID       string           `json:"run_id" msgpack:"run_id"`
	Tool        string           `json:"tool" msgpack:"tool"`
	Version     string           `json:"version,omitempty" msgpack:"version,omitempty"`
	Stats       diag.Stats       `json:"stats" msgpack:"stats"`
	Diagnostics []DiagnosticJSON `json:"diagnostics" msgpack:"diagnostics"`
	Timings     *observ.Report   `json:"timings,omitempty" msgpack:"timings,omitempty"`
	Quality     *quality.Report  `json:"quality,omitempty" msgpack:"quality,omitempty"`
}

func makeLocation(loc source.Location, span source.Span) LocationJSON {
	return LocationJSON{
		File:      loc.Path,
		StartByte: span.Start,
		EndByte:   span.End,
		StartLine: loc.Start.Line,
		StartCol:  loc.Start.Col,
		EndLine:   loc.End.Line,
		EndCol:    loc.End.Col,
	}
}

// BuildReport формирует структуру отчёта без сериализации.
// Stats are computed over all of diags, suppressed ones included.
func BuildReport(diags []diag.Diagnostic, meta Meta) Report {
	rep := Report{
		RunID:       meta.RunID.String(),
		Tool:        meta.ToolName,
		Version:     meta.ToolVersion,
		Stats:       diag.Summarize(diags),
		Diagnostics: make([]DiagnosticJSON, 0, len(diags)),
		Timings:     meta.Timings,
		Quality:     meta.Quality,
	}
	for i := range diags {
		d := &diags[i]
		dj := DiagnosticJSON{
			Rule:       d.RuleID,
			Severity:   d.Severity.Label(),
			Message:    d.Message,
			Location:   makeLocation(d.Location, d.Primary),
			Suppressed: d.Suppressed,
			Data:       d.Data,
		}
		for _, n := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(n.Location, n.Span)})
		}
		rep.Diagnostics = append(rep.Diagnostics, dj)
	}
	return rep
}
