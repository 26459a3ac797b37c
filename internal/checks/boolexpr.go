package checks

import (
	"strconv"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

func registerBoolExpr(reg *rule.Registry) {
	binary := tree.Kinds(tree.KindBinary)
	reg.Register(rule.Descriptor{
		ID:               DuplicateCondition,
		Inspector:        "boolean-expression",
		Summary:          "operand repeated in the same && or || chain",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevWarning,
		Kinds:            binary,
		EnabledByDefault: true,
		New:              chainRule(checkDuplicates),
	})
	reg.Register(rule.Descriptor{
		ID:               SimplifiableCondition,
		Inspector:        "boolean-expression",
		Summary:          "redundant boolean literal in a condition",
		Category:         rule.CatCodeStyle,
		Severity:         diag.SevWarning,
		Kinds:            binary,
		EnabledByDefault: true,
		New:              chainRule(checkRedundantLiterals),
	})
	reg.Register(rule.Descriptor{
		ID:               ConstantCondition,
		Inspector:        "boolean-expression",
		Summary:          "condition collapses to a constant",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevError,
		Kinds:            binary,
		EnabledByDefault: true,
		New:              chainRule(checkConstant),
	})
	reg.Register(rule.Descriptor{
		ID:               BooleanExpressionLength,
		Inspector:        "boolean-expression",
		Summary:          "too many boolean operators in one expression",
		Category:         rule.CatBoolExprLen,
		Severity:         diag.SevInfo,
		Kinds:            binary,
		EnabledByDefault: true,
		Thresholds:       map[string]int{"max": 3},
		New:              newExprLength,
	})
}

// chain is a maximal run of operands joined by the same logical operator.
type chain struct {
	root     tree.NodeID
	op       tree.Op
	operands []tree.NodeID
}

// chainRule calls check once per chain root.
func chainRule(check func(s *rule.Setup, ch chain)) func(s *rule.Setup) walk.Visitor {
	return func(s *rule.Setup) walk.Visitor {
		return walk.Funcs{OnEnter: func(c *walk.Context) {
			if ch, ok := chainAt(c.Unit(), c.ID()); ok {
				check(s, ch)
			}
		}}
	}
}

// chainAt returns the chain rooted at id. A && inside a || (or the reverse)
// starts its own chain.
func chainAt(u *tree.Unit, id tree.NodeID) (chain, bool) {
	n := u.Node(id)
	if n.Kind != tree.KindBinary || !n.Op.IsLogical() {
		return chain{}, false
	}
	if p := u.Node(n.Parent); p != nil && p.Kind == tree.KindBinary && p.Op == n.Op {
		return chain{}, false
	}
	ch := chain{root: id, op: n.Op}
	var flatten func(id tree.NodeID)
	flatten = func(id tree.NodeID) {
		x := u.Node(id)
		if x.Kind == tree.KindBinary && x.Op == ch.op {
			flatten(x.X)
			flatten(x.Y)
			return
		}
		ch.operands = append(ch.operands, id)
	}
	flatten(id)
	return ch, true
}

func checkDuplicates(s *rule.Setup, ch chain) {
	u := s.Unit
	for i := 1; i < len(ch.operands); i++ {
		for j := range i {
			if !u.Equal(ch.operands[j], ch.operands[i]) {
				continue
			}
			s.ReportNode(ch.operands[i], "duplicated condition `%s`", u.Source(ch.operands[i])).
				WithNote(u.Node(ch.operands[j]).Span, "first occurrence").
				Emit()
			break
		}
	}
}

// neutral is the literal that can be dropped from a chain; absorbing is the
// one that decides it.
func literals(op tree.Op) (neutral, absorbing string) {
	if op == tree.OpAndAnd {
		return "true", "false"
	}
	return "false", "true"
}

func checkRedundantLiterals(s *rule.Setup, ch chain) {
	neutral, _ := literals(ch.op)
	for _, o := range ch.operands {
		if isLiteral(s.Unit, o, tree.LitBool, neutral) {
			s.ReportNode(o, "`%s` is redundant in a %s chain and can be removed", neutral, ch.op).Emit()
		}
	}
}

func checkConstant(s *rule.Setup, ch chain) {
	_, absorbing := literals(ch.op)
	for _, o := range ch.operands {
		if isLiteral(s.Unit, o, tree.LitBool, absorbing) {
			s.ReportNode(ch.root, "condition is always %s", absorbing).
				WithNote(s.Unit.Node(o).Span, "because of this operand").
				WithData("value", absorbing).
				Emit()
			return
		}
	}
}

func countsAsBoolOp(u *tree.Unit, id tree.NodeID) bool {
	n := u.Node(id)
	return n != nil && n.Kind == tree.KindBinary && (n.Op.IsLogical() || n.Op.IsBitwiseLogical())
}

func newExprLength(s *rule.Setup) walk.Visitor {
	limit := s.Threshold("max")
	u := s.Unit
	return walk.Funcs{OnEnter: func(c *walk.Context) {
		id := c.ID()
		if !countsAsBoolOp(u, id) {
			return
		}
		// only the outermost operator of an expression reports
		for p := c.Parent(); p.IsValid(); p = u.Parent(p) {
			if countsAsBoolOp(u, p) {
				return
			}
			if pn := u.Node(p); pn.Kind != tree.KindUnary || pn.Op != tree.OpNot {
				break
			}
		}
		count := 0
		var visit func(id tree.NodeID)
		visit = func(id tree.NodeID) {
			n := u.Node(id)
			switch {
			case countsAsBoolOp(u, id):
				count++
				visit(n.X)
				visit(n.Y)
			case n.Kind == tree.KindUnary && n.Op == tree.OpNot:
				visit(n.X)
			}
		}
		visit(id)
		if count > limit {
			s.ReportNode(id, "boolean expression has %d operators (max %d)", count, limit).
				WithData("operators", strconv.Itoa(count)).
				Emit()
		}
	}}
}
