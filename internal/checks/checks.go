// Package checks holds the concrete inspections. Default returns a registry
// with all of them.
package checks

import (
	"strings"

	"lintel/internal/rule"
	"lintel/internal/tree"
)

// Rule ids.
const (
	CyclomaticComplexity = "cyclomatic-complexity"

	DuplicateCondition      = "duplicate-condition"
	SimplifiableCondition   = "simplifiable-condition"
	ConstantCondition       = "constant-condition"
	BooleanExpressionLength = "boolean-expression-length"

	MissingSwitchDefault = "missing-switch-default"
	DefaultNotLast       = "default-not-last"
	SwitchFallthrough    = "switch-fallthrough"

	NeedBraces      = "need-braces"
	SwitchCaseBlock = "switch-case-block"
	NestedBlock     = "nested-block"

	CovariantEquals       = "covariant-equals"
	EqualsWithoutHashCode = "equals-without-hashcode"
	EqualsContract        = "equals-contract"

	ResourceLeak = "resource-leak"

	SealedSubtypeModifier = "sealed-subtype-modifier"
)

// Default returns a fresh registry with every built-in rule.
func Default() *rule.Registry {
	reg := rule.NewRegistry()
	for _, register := range []func(*rule.Registry){
		registerComplexity,
		registerBoolExpr,
		registerSwitch,
		registerBlocks,
		registerEquals,
		registerResources,
		registerSealed,
	} {
		register(reg)
	}
	return reg
}

// simpleName strips generic arguments and qualifiers: java.util.List<T> -> List.
func simpleName(typ string) string {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		typ = typ[i+1:]
	}
	return strings.TrimSpace(typ)
}

func isIdent(u *tree.Unit, id tree.NodeID, name string) bool {
	n := u.Node(id)
	return n != nil && n.Kind == tree.KindIdent && n.Text == name
}

func isLiteral(u *tree.Unit, id tree.NodeID, kind tree.LitKind, text string) bool {
	n := u.Node(id)
	return n != nil && n.Kind == tree.KindLiteral && n.Lit == kind && n.Text == text
}

func isNull(u *tree.Unit, id tree.NodeID) bool {
	return isLiteral(u, id, tree.LitNull, "null")
}

// exits reports whether control never falls off the end of stmt.
func exits(u *tree.Unit, stmt tree.NodeID) bool {
	n := u.Node(stmt)
	if n == nil {
		return false
	}
	switch n.Kind {
	case tree.KindReturn, tree.KindThrow, tree.KindBreak, tree.KindContinue:
		return true
	case tree.KindBlock:
		return len(n.Children) > 0 && exits(u, n.Children[len(n.Children)-1])
	case tree.KindIf:
		return n.Else.IsValid() && exits(u, n.Body) && exits(u, n.Else)
	case tree.KindTry:
		if fin := u.FirstChildOfKind(stmt, tree.KindFinally); fin.IsValid() && exits(u, u.Node(fin).Body) {
			return true
		}
		if !exits(u, n.Body) {
			return false
		}
		for _, c := range u.ChildrenOfKind(stmt, tree.KindCatch) {
			if !exits(u, u.Node(c).Body) {
				return false
			}
		}
		return true
	case tree.KindOtherStmt:
		// synchronized and labeled statements
		if b := u.FirstChildOfKind(stmt, tree.KindBlock); b.IsValid() {
			return exits(u, b)
		}
	}
	return false
}

// lastOf returns the last element of ids, or NoNodeID.
func lastOf(ids []tree.NodeID) tree.NodeID {
	if len(ids) == 0 {
		return tree.NoNodeID
	}
	return ids[len(ids)-1]
}
