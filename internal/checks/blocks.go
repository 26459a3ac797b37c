package checks

import (
	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

const (
	optAllowTerminalBlock = "allow_terminal_block"
	optAllowInSwitchCase  = "allow_in_switch_case"
)

func registerBlocks(reg *rule.Registry) {
	reg.Register(rule.Descriptor{
		ID:               NeedBraces,
		Inspector:        "nested-block",
		Summary:          "control statement body is not enclosed in braces",
		Category:         rule.CatCodeStyle,
		Severity:         diag.SevWarning,
		Kinds:            tree.Kinds(tree.KindIf, tree.KindFor, tree.KindForEach, tree.KindWhile, tree.KindDoWhile),
		EnabledByDefault: true,
		New:              newNeedBraces,
	})
	reg.Register(rule.Descriptor{
		ID:        SwitchCaseBlock,
		Inspector: "nested-block",
		Summary:   "case body is not a single block",
		Category:  rule.CatCodeStyle,
		Severity:  diag.SevWarning,
		Kinds:     tree.Kinds(tree.KindSwitchCase),
		Options:   map[string]bool{optAllowTerminalBlock: true},
		New:       newSwitchCaseBlock,
	})
	reg.Register(rule.Descriptor{
		ID:               NestedBlock,
		Inspector:        "nested-block",
		Summary:          "free-standing nested block",
		Category:         rule.CatCodeStyle,
		Severity:         diag.SevInfo,
		Kinds:            tree.Kinds(tree.KindBlock),
		EnabledByDefault: true,
		Options:          map[string]bool{optAllowInSwitchCase: true},
		New:              newNestedBlock,
	})
}

var stmtWord = map[tree.Kind]string{
	tree.KindIf:      "if",
	tree.KindFor:     "for",
	tree.KindForEach: "for",
	tree.KindWhile:   "while",
	tree.KindDoWhile: "do",
}

func newNeedBraces(s *rule.Setup) walk.Visitor {
	u := s.Unit
	return walk.Funcs{OnEnter: func(c *walk.Context) {
		n := c.Node()
		if n.Body.IsValid() && u.Kind(n.Body) != tree.KindBlock {
			s.ReportNode(n.Body, "'%s' body should be enclosed in braces", stmtWord[n.Kind]).Emit()
		}
		if n.Kind != tree.KindIf || !n.Else.IsValid() {
			return
		}
		// else-if chains are fine
		if k := u.Kind(n.Else); k != tree.KindBlock && k != tree.KindIf {
			s.ReportNode(n.Else, "'else' body should be enclosed in braces").Emit()
		}
	}}
}

func newSwitchCaseBlock(s *rule.Setup) walk.Visitor {
	u := s.Unit
	allowTerminal := s.Option(optAllowTerminalBlock)
	return walk.Funcs{OnEnter: func(c *walk.Context) {
		if c.Node().Flags.Has(tree.FlagArrow) {
			return
		}
		body := u.CaseBody(c.ID())
		if len(body) == 0 || (len(body) == 1 && u.Kind(body[0]) == tree.KindBlock) {
			return
		}
		if allowTerminal && terminalBlockForm(u, body) {
			return
		}
		for _, st := range body {
			if u.Kind(st) != tree.KindBlock {
				s.ReportNode(st, "statement outside block").Emit()
				return
			}
		}
		s.ReportNode(body[1], "case body should be a single block").Emit()
	}}
}

// terminalBlockForm accepts "{ ... } break;" and "stmts... { break; }".
func terminalBlockForm(u *tree.Unit, body []tree.NodeID) bool {
	if len(body) == 2 && u.Kind(body[0]) == tree.KindBlock && exits(u, body[1]) {
		return true
	}
	last := u.Node(lastOf(body))
	if last.Kind != tree.KindBlock || len(last.Children) == 0 {
		return false
	}
	switch u.Kind(last.Children[0]) {
	case tree.KindBreak, tree.KindReturn, tree.KindThrow, tree.KindContinue:
		return true
	}
	return false
}

func newNestedBlock(s *rule.Setup) walk.Visitor {
	u := s.Unit
	allowInCase := s.Option(optAllowInSwitchCase)
	return walk.Funcs{OnEnter: func(c *walk.Context) {
		parent := c.Parent()
		switch u.Kind(parent) {
		case tree.KindBlock:
		case tree.KindSwitchCase:
			if allowInCase && len(u.CaseBody(parent)) == 1 {
				return
			}
		default:
			return
		}
		s.ReportNode(c.ID(), "avoid nested blocks").Emit()
	}}
}
