package diag

import (
	"testing"

	"lintel/internal/source"
)

func loc(path string, line, col uint32) source.Location {
	return source.Location{Path: path, Start: source.LineCol{Line: line, Col: col}, End: source.LineCol{Line: line, Col: col + 1}}
}

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{
			RuleID:   "switch-fallthrough",
			Severity: SevWarning,
			Message:  "first line\nsecond",
			Location: loc("./testdata/Sample.java", 4, 9),
			Notes: []Note{
				{Location: loc("testdata/Sample.java", 2, 1), Msg: "previous group starts here"},
			},
		},
		{
			RuleID:     "missing-switch-default",
			Severity:   SevWarning,
			Message:    "switch has no default",
			Location:   loc("testdata/Sample.java", 1, 1),
			Suppressed: true,
		},
	}

	expected := "warning missing-switch-default testdata/Sample.java:1:1 switch has no default [suppressed]\n" +
		"note switch-fallthrough testdata/Sample.java:2:1 previous group starts here\n" +
		"warning switch-fallthrough testdata/Sample.java:4:9 first line second"

	if got := FormatGoldenDiagnostics(diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatGoldenDiagnostics(nil, true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
