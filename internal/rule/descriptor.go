// Package rule describes inspections: their metadata, defaults and the
// per-run configuration that enables and tunes them.
package rule

import (
	"fmt"

	"lintel/internal/diag"
	"lintel/internal/source"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

// Category groups rules in reports.
type Category string

const (
	CatCodeStyle            Category = "CODE_STYLE"
	CatBestPractices        Category = "BEST_PRACTICES"
	CatErrorProne           Category = "ERROR_PRONE"
	CatComplexity           Category = "COMPLEXITY"
	CatCyclomaticComplexity Category = "CYCLOMATIC_COMPLEXITY"
	CatBoolExprLen          Category = "BOOL_EXPR_LEN"
)

// Descriptor is the static description of one rule. New is called once per
// unit and the returned visitor sees only that unit.
type Descriptor struct {
	ID               string
	Inspector        string
	Summary          string
	Category         Category
	Severity         diag.Severity
	Kinds            tree.KindSet // пустой набор: все узлы
	EnabledByDefault bool
	Thresholds       map[string]int
	Options          map[string]bool
	New              func(s *Setup) walk.Visitor
}

// Setup is what a rule gets when it is instantiated for a unit.
type Setup struct {
	Unit     *tree.Unit
	Settings Effective

	rule     string
	reporter diag.Reporter
}

// NewSetup binds a rule id to a unit and a reporter.
func NewSetup(u *tree.Unit, id string, eff Effective, r diag.Reporter) *Setup {
	return &Setup{Unit: u, Settings: eff, rule: id, reporter: locating(u, r)}
}

// RuleID returns the id diagnostics are reported under.
func (s *Setup) RuleID() string { return s.rule }

// Report starts a diagnostic with the configured severity; call Emit on the result.
func (s *Setup) Report(span source.Span, format string, args ...any) *diag.ReportBuilder {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return diag.NewReportBuilder(s.reporter, s.Settings.Severity, s.rule, span, msg)
}

// ReportNode reports at the span of a node.
func (s *Setup) ReportNode(id tree.NodeID, format string, args ...any) *diag.ReportBuilder {
	return s.Report(s.Unit.Node(id).Span, format, args...)
}

// Threshold returns a configured threshold.
func (s *Setup) Threshold(key string) int { return s.Settings.Thresholds[key] }

// Option returns a configured boolean option.
func (s *Setup) Option(key string) bool { return s.Settings.Options[key] }

// locating fills in source locations before a diagnostic leaves the rule.
func locating(u *tree.Unit, next diag.Reporter) diag.Reporter {
	return diag.ReporterFunc(func(d diag.Diagnostic) {
		if next == nil {
			return
		}
		if d.Location.Path == "" {
			d.Location = u.Location(d.Primary)
		}
		for i := range d.Notes {
			if d.Notes[i].Location.Path == "" {
				d.Notes[i].Location = u.Location(d.Notes[i].Span)
			}
		}
		next.Report(d)
	})
}
