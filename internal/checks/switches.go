package checks

import (
	"regexp"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

func registerSwitch(reg *rule.Registry) {
	kinds := tree.Kinds(tree.KindSwitch)
	reg.Register(rule.Descriptor{
		ID:               MissingSwitchDefault,
		Inspector:        "switch-statement",
		Summary:          "switch statement without a default branch",
		Category:         rule.CatBestPractices,
		Severity:         diag.SevWarning,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              switchRule(checkMissingDefault),
	})
	reg.Register(rule.Descriptor{
		ID:               DefaultNotLast,
		Inspector:        "switch-statement",
		Summary:          "default branch is not the last one",
		Category:         rule.CatCodeStyle,
		Severity:         diag.SevInfo,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              switchRule(checkDefaultLast),
	})
	reg.Register(rule.Descriptor{
		ID:               SwitchFallthrough,
		Inspector:        "switch-statement",
		Summary:          "control falls through into the next case",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevWarning,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              switchRule(checkFallthrough),
	})
}

// caseGroup is a run of labels sharing one statement list.
type caseGroup struct {
	labels     []tree.NodeID
	body       []tree.NodeID
	hasDefault bool
	arrow      bool
}

func (g *caseGroup) fallsThrough(u *tree.Unit) bool {
	return !g.arrow && !exits(u, lastOf(g.body))
}

func caseGroups(u *tree.Unit, sw tree.NodeID) []caseGroup {
	var (
		groups []caseGroup
		cur    caseGroup
	)
	for _, c := range u.ChildrenOfKind(sw, tree.KindSwitchCase) {
		n := u.Node(c)
		cur.labels = append(cur.labels, c)
		cur.hasDefault = cur.hasDefault || n.Flags.Has(tree.FlagDefault)
		cur.arrow = n.Flags.Has(tree.FlagArrow)
		body := u.CaseBody(c)
		if len(body) == 0 && !cur.arrow {
			// stacked label: shares the next body
			continue
		}
		cur.body = body
		groups = append(groups, cur)
		cur = caseGroup{}
	}
	if len(cur.labels) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func switchRule(check func(s *rule.Setup, sw tree.NodeID, groups []caseGroup)) func(s *rule.Setup) walk.Visitor {
	return func(s *rule.Setup) walk.Visitor {
		return walk.Funcs{OnEnter: func(c *walk.Context) {
			check(s, c.ID(), caseGroups(c.Unit(), c.ID()))
		}}
	}
}

func checkMissingDefault(s *rule.Setup, sw tree.NodeID, groups []caseGroup) {
	// switch expressions are checked for exhaustiveness by the compiler
	if s.Unit.Node(sw).Flags.Has(tree.FlagSwitchExpr) {
		return
	}
	for _, g := range groups {
		if g.hasDefault {
			return
		}
	}
	s.ReportNode(sw, "switch has no default branch").Emit()
}

func checkDefaultLast(s *rule.Setup, _ tree.NodeID, groups []caseGroup) {
	for i, g := range groups {
		if !g.hasDefault || i == len(groups)-1 {
			continue
		}
		for _, l := range g.labels {
			if s.Unit.Node(l).Flags.Has(tree.FlagDefault) {
				s.ReportNode(l, "default should be the last branch of the switch").Emit()
			}
		}
	}
}

var fallthroughComment = regexp.MustCompile(`(?i)fall(s|ing)?[ -]?thr(ough|u)`)

func checkFallthrough(s *rule.Setup, _ tree.NodeID, groups []caseGroup) {
	u := s.Unit
	for i := 0; i+1 < len(groups); i++ {
		g := &groups[i]
		if !g.fallsThrough(u) {
			continue
		}
		// пустая последняя ветка: проваливаться некуда
		if !groups[i+1].arrow && len(groups[i+1].body) == 0 {
			continue
		}
		next := groups[i+1].labels[0]
		if hasFallthroughComment(u, lastOf(g.body), next) {
			continue
		}
		s.ReportNode(next, "fall through from the previous branch of the switch").
			WithNote(u.Node(g.labels[0]).Span, "branch that falls through").
			Emit()
	}
}

// hasFallthroughComment looks for a "fall through" marker between the end of
// the previous body and the next label.
func hasFallthroughComment(u *tree.Unit, from, to tree.NodeID) bool {
	start := u.Node(from).Span.End
	end := u.Node(to).Span.Start
	for _, c := range u.Comments() {
		if c.Span.Start >= start && c.Span.End <= end && fallthroughComment.MatchString(c.Text) {
			return true
		}
	}
	return false
}
