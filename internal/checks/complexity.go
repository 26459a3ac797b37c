package checks

import (
	"strconv"

	"lintel/internal/cfg"
	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

const optSwitchAsSingle = "switch_block_as_single_decision"

func registerComplexity(reg *rule.Registry) {
	reg.Register(rule.Descriptor{
		ID:               CyclomaticComplexity,
		Inspector:        "cyclomatic-complexity",
		Summary:          "routine has too many independent paths",
		Category:         rule.CatCyclomaticComplexity,
		Severity:         diag.SevWarning,
		Kinds:            tree.Kinds(tree.KindMethod, tree.KindLambda),
		EnabledByDefault: true,
		Thresholds:       map[string]int{"max": 10},
		Options:          map[string]bool{optSwitchAsSingle: false},
		New: func(s *rule.Setup) walk.Visitor {
			opts := cfg.Options{SwitchAsSingleDecision: s.Option(optSwitchAsSingle)}
			limit := s.Threshold("max")
			return walk.Funcs{OnEnter: func(c *walk.Context) {
				n := c.Node()
				if !n.Body.IsValid() {
					return
				}
				cc := cfg.Build(c.Unit(), c.ID(), opts).Complexity()
				if cc <= limit {
					return
				}
				what := "lambda"
				if n.Kind == tree.KindMethod {
					what = "method " + n.Text
				}
				s.ReportNode(c.ID(), "%s has cyclomatic complexity %d (max %d)", what, cc, limit).
					WithData("complexity", strconv.Itoa(cc)).
					WithData("max", strconv.Itoa(limit)).
					Emit()
			}}
		},
	})
}
