package checks

import (
	"strings"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

func registerEquals(reg *rule.Registry) {
	kinds := tree.Kinds(tree.KindClass)
	reg.Register(rule.Descriptor{
		ID:               CovariantEquals,
		Inspector:        "equals-hashcode",
		Summary:          "equals overload does not override equals(Object)",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevError,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              classRule(checkCovariantEquals),
	})
	reg.Register(rule.Descriptor{
		ID:               EqualsWithoutHashCode,
		Inspector:        "equals-hashcode",
		Summary:          "equals(Object) overridden without hashCode()",
		Category:         rule.CatErrorProne,
		Severity:         diag.SevError,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              classRule(checkHashCode),
	})
	reg.Register(rule.Descriptor{
		ID:               EqualsContract,
		Inspector:        "equals-hashcode",
		Summary:          "equals(Object) misses identity, type or null handling",
		Category:         rule.CatBestPractices,
		Severity:         diag.SevWarning,
		Kinds:            kinds,
		EnabledByDefault: true,
		New:              classRule(checkEqualsContract),
	})
}

func classRule(check func(s *rule.Setup, class tree.NodeID)) func(s *rule.Setup) walk.Visitor {
	return func(s *rule.Setup) walk.Visitor {
		return walk.Funcs{OnEnter: func(c *walk.Context) {
			if c.Node().Flags.Has(tree.FlagInterface) {
				return
			}
			check(s, c.ID())
		}}
	}
}

func isObjectType(typ string) bool {
	typ = strings.TrimSpace(typ)
	return typ == "Object" || typ == "java.lang.Object"
}

// equalsMethods splits the equals methods of a class into overrides of
// equals(Object) and overloads taking something else.
func equalsMethods(u *tree.Unit, class tree.NodeID) (overrides, overloads []tree.NodeID) {
	for _, m := range u.ChildrenOfKind(class, tree.KindMethod) {
		n := u.Node(m)
		if n.Text != "equals" || n.Flags.Has(tree.FlagConstructor) || u.Modifiers(m).Has(tree.ModStatic) {
			continue
		}
		params := u.Params(m)
		if len(params) != 1 {
			continue
		}
		if isObjectType(u.Node(params[0]).Type) {
			overrides = append(overrides, m)
		} else {
			overloads = append(overloads, m)
		}
	}
	return overrides, overloads
}

func checkCovariantEquals(s *rule.Setup, class tree.NodeID) {
	overrides, overloads := equalsMethods(s.Unit, class)
	if len(overrides) > 0 {
		return
	}
	for _, m := range overloads {
		typ := s.Unit.Node(s.Unit.Params(m)[0]).Type
		s.ReportNode(m, "covariant equals(%s) does not override equals(Object)", typ).
			WithData("parameter", typ).
			Emit()
	}
}

func checkHashCode(s *rule.Setup, class tree.NodeID) {
	u := s.Unit
	overrides, _ := equalsMethods(u, class)
	if len(overrides) == 0 {
		return
	}
	for _, m := range u.ChildrenOfKind(class, tree.KindMethod) {
		if u.Node(m).Text == "hashCode" && len(u.Params(m)) == 0 {
			return
		}
	}
	s.ReportNode(overrides[0], "class %s overrides equals(Object) but not hashCode()", u.Node(class).Text).Emit()
}

// equalsFacts records how the body of equals(Object) treats its parameter.
// Offsets are the first occurrence, zero when absent.
type equalsFacts struct {
	identity  bool
	nullCheck uint32
	typeCheck uint32
	access    uint32 // first cast or dereference
	deref     uint32 // first dereference
	delegates bool   // super.equals(p)
}

func first(cur, off uint32) uint32 {
	if cur == 0 || off < cur {
		return off
	}
	return cur
}

func collectEqualsFacts(u *tree.Unit, method tree.NodeID) equalsFacts {
	var f equalsFacts
	param := u.Node(u.Params(method)[0]).Text
	isParam := func(id tree.NodeID) bool { return isIdent(u, id, param) }
	body := u.Node(method).Body

	u.Walk(body, func(id tree.NodeID) bool {
		n := u.Node(id)
		// offsets are shifted by one so that zero means "absent"
		at := n.Span.Start + 1
		switch n.Kind {
		case tree.KindLambda, tree.KindClass:
			return false
		case tree.KindBinary:
			if n.Op != tree.OpEq && n.Op != tree.OpNe {
				break
			}
			if (isIdent(u, n.X, "this") && isParam(n.Y)) || (isParam(n.X) && isIdent(u, n.Y, "this")) {
				f.identity = true
			}
			if (isParam(n.X) && isNull(u, n.Y)) || (isNull(u, n.X) && isParam(n.Y)) {
				f.nullCheck = first(f.nullCheck, at)
			}
		case tree.KindInstanceOf:
			if isParam(n.X) {
				// instanceof is false for null
				f.typeCheck = first(f.typeCheck, at)
				f.nullCheck = first(f.nullCheck, at)
			}
		case tree.KindCall:
			switch {
			case n.Text == "getClass" && isParam(n.X):
				f.typeCheck = first(f.typeCheck, at)
				f.deref = first(f.deref, at)
			case n.Text == "equals" && isIdent(u, n.X, "super"):
				f.delegates = true
			case isParam(n.X):
				f.access = first(f.access, at)
				f.deref = first(f.deref, at)
			}
		case tree.KindFieldAccess:
			if isParam(n.X) {
				f.access = first(f.access, at)
				f.deref = first(f.deref, at)
			}
		case tree.KindCast:
			if isParam(n.X) {
				f.access = first(f.access, at)
			}
		}
		return true
	})
	return f
}

func checkEqualsContract(s *rule.Setup, class tree.NodeID) {
	u := s.Unit
	overrides, _ := equalsMethods(u, class)
	for _, m := range overrides {
		if !u.Node(m).Body.IsValid() {
			continue
		}
		f := collectEqualsFacts(u, m)
		if f.delegates || f.access == 0 && f.deref == 0 {
			continue
		}
		var missing []string
		if !f.identity && f.nullCheck == 0 {
			missing = append(missing, "identity or null check")
		}
		if f.access != 0 && (f.typeCheck == 0 || f.typeCheck > f.access) {
			missing = append(missing, "type check before access")
		}
		if f.deref != 0 && (f.nullCheck == 0 || f.nullCheck > f.deref) {
			missing = append(missing, "null safety")
		}
		if len(missing) == 0 {
			continue
		}
		s.ReportNode(m, "equals(Object) in %s does not honour the contract: missing %s",
			u.Node(class).Text, strings.Join(missing, ", ")).
			WithData("missing", strings.Join(missing, ",")).
			Emit()
	}
}
