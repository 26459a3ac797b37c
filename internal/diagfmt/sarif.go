package diagfmt

import (
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/source"
)

// engineRules describes the ids the engine reports on its own.
var engineRules = []struct {
	id, summary string
}{
	{diag.RuleParseFailure, "The file could not be parsed."},
	{diag.RuleRuleFailure, "An inspection failed while analysing the file."},
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

// Sarif форматирует диагностики в SARIF (v2.1.0). Every registered rule is
// listed with its default level; suppressed results carry an in-source
// suppression and properties.suppressed = true.
func Sarif(w io.Writer, diags []diag.Diagnostic, rules []*rule.Descriptor, meta Meta) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}
	var run *sarif.Run
	if meta.InfoURI != "" {
		run = sarif.NewRunWithInformationURI(meta.ToolName, meta.InfoURI)
	} else {
		run = sarif.NewRun(*sarif.NewSimpleTool(meta.ToolName))
	}
	if meta.ToolVersion != "" {
		run.Tool.Driver.WithVersion(meta.ToolVersion)
	}
	run.WithAutomationDetails(sarif.NewRunAutomationDetails().WithGUID(meta.RunID.String()))

	for _, d := range rules {
		r := run.AddRule(d.ID)
		if d.Inspector != "" {
			r.WithName(d.Inspector)
		}
		r.WithDescription(d.Summary).
			WithDefaultConfiguration(sarif.NewReportingConfiguration().
				WithLevel(sarifLevel(d.Severity)).
				WithEnabled(d.EnabledByDefault)).
			WithProperties(sarif.Properties{"category": string(d.Category)})
	}
	for _, er := range engineRules {
		run.AddRule(er.id).
			WithDescription(er.summary).
			WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("error"))
	}

	for i := range diags {
		d := &diags[i]
		// неизвестные id всё равно получают правило, иначе ruleIndex не сойдётся
		run.AddRule(d.RuleID)

		result := sarif.NewRuleResult(d.RuleID).
			WithMessage(sarif.NewTextMessage(d.Message)).
			WithLevel(sarifLevel(d.Severity)).
			WithLocations([]*sarif.Location{sarifLocation(d.Location)})
		for _, n := range d.Notes {
			result.AddRelatedLocation(sarifLocation(n.Location).WithMessage(sarif.NewTextMessage(n.Msg)))
		}
		result.Properties = sarif.Properties{"suppressed": d.Suppressed}
		for k, v := range d.Data {
			result.Properties[k] = v
		}
		if d.Suppressed {
			result.AddSuppression(sarif.NewSuppression("inSource"))
		}
		run.AddResult(result)
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}

func sarifLocation(loc source.Location) *sarif.Location {
	region := sarif.NewRegion().
		WithStartLine(int(loc.Start.Line)).
		WithStartColumn(int(loc.Start.Col))
	if loc.End.Line > 0 {
		region.WithEndLine(int(loc.End.Line)).WithEndColumn(int(loc.End.Col))
	}
	return sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewSimpleArtifactLocation(loc.Path)).
			WithRegion(region),
	)
}
