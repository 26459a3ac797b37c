package diag

import (
	"lintel/internal/source"
)

// Rule ids produced by the engine itself rather than by an inspector.
const (
	RuleParseFailure = "parse-failure"
	RuleRuleFailure  = "rule-failure"
)

type Note struct {
	Span     source.Span
	Location source.Location
	Msg      string
}

// Diagnostic is one finding. Location is Primary resolved against the file
// that produced it; Suppressed is the only field changed after emission.
type Diagnostic struct {
	RuleID     string
	Severity   Severity
	Message    string
	Primary    source.Span
	Location   source.Location
	Suppressed bool
	Data       map[string]string
	Notes      []Note
}

// Key is the deduplication identity: rule id plus location span.
type Key struct {
	RuleID string
	Path   string
	Start  uint32
	End    uint32
}

func (d *Diagnostic) Key() Key {
	return Key{RuleID: d.RuleID, Path: d.Location.Path, Start: d.Primary.Start, End: d.Primary.End}
}

// Less orders diagnostics by path, start line, start column and rule id,
// then by end position and message so the order is total.
func Less(a, b *Diagnostic) bool {
	la, lb := a.Location, b.Location
	if la.Path != lb.Path {
		return la.Path < lb.Path
	}
	if la.Start.Line != lb.Start.Line {
		return la.Start.Line < lb.Start.Line
	}
	if la.Start.Col != lb.Start.Col {
		return la.Start.Col < lb.Start.Col
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	if la.End.Line != lb.End.Line {
		return la.End.Line < lb.End.Line
	}
	if la.End.Col != lb.End.Col {
		return la.End.Col < lb.End.Col
	}
	return a.Message < b.Message
}
