package checks_test

import (
	"testing"

	"lintel/internal/checks"
	"lintel/internal/tree"
	tt "lintel/internal/tree/treetest"
)

func plus(k string) *tt.N { return printLine(tt.Bin("+", tt.Ident("n"), tt.Int(k))) }

func switchFixture() *tt.N {
	withDefault := tt.Method("switchWithDefault", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("10"), plus("1"), tt.Break()),
		tt.Case(tt.Int("20"), plus("2"), tt.Break()),
		tt.Default(printLine(tt.Ident("UNKNOWN"))),
	)))
	withoutDefault := tt.Method("switchWithoutDefault", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("20"), plus("1"), tt.Break()),
		tt.Case(tt.Int("30"), plus("2"), tt.Break()),
	)))
	shifted := tt.Method("switchWithShiftedDefault", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Default(printLine(tt.Ident("UNKNOWN")), tt.Break()),
		tt.Case(tt.Int("30"), plus("1"), tt.Break()),
		tt.Case(tt.Int("40"), plus("2"), tt.Break()),
	)))
	falls := tt.Method("switchFallthrough", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("50")),
		tt.Case(tt.Int("60"), plus("1")),
		tt.Case(tt.Int("70"), plus("2"), tt.Break()),
		tt.Default(tt.Break()),
	)))
	return tt.Class("SwitchExample", withDefault, withoutDefault, shifted, falls)
}

func TestMissingSwitchDefault(t *testing.T) {
	diags := run(t, checks.MissingSwitchDefault, nil, switchFixture())
	expectCount(t, diags, 1)

	expr := tt.Method("m", tt.Block(tt.Return(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("1"), tt.Int("2")).Flag(tree.FlagArrow),
	).Flag(tree.FlagSwitchExpr))))
	expectCount(t, run(t, checks.MissingSwitchDefault, nil, tt.Class("E", expr)), 0)
}

func TestDefaultNotLast(t *testing.T) {
	diags := run(t, checks.DefaultNotLast, nil, switchFixture())
	expectCount(t, diags, 1)

	// default stacked with the last case is fine
	m := tt.Method("m", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("1"), tt.Break()),
		tt.Default(),
		tt.Case(tt.Int("2"), tt.Break()),
	)))
	expectCount(t, run(t, checks.DefaultNotLast, nil, tt.Class("S", m)), 0)
}

func TestSwitchFallthrough(t *testing.T) {
	u, _ := tt.MustBuild(t, "Test.java", switchFixture())
	diags := run(t, checks.SwitchFallthrough, nil, switchFixture())
	expectCount(t, diags, 1)
	// reported at "case 70"
	var label70 tree.NodeID
	u.Walk(u.Root(), func(id tree.NodeID) bool {
		n := u.Node(id)
		if n.Kind == tree.KindSwitchCase && n.X.IsValid() && u.Node(n.X).Text == "70" {
			label70 = id
		}
		return true
	})
	if diags[0].Primary != u.Node(label70).Span {
		t.Fatalf("reported at %v, want case 70 at %v", diags[0].Primary, u.Node(label70).Span)
	}
}

func TestSwitchFallthroughTerminalForms(t *testing.T) {
	m := tt.Method("m", tt.Block(tt.While(tt.Ident("run"), tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("1"), tt.Return(nil)),
		tt.Case(tt.Int("2"), tt.Throw(tt.New("IllegalStateException"))),
		tt.Case(tt.Int("3"), tt.Continue()),
		tt.Case(tt.Int("4"), tt.Block(plus("4"), tt.Break())),
		tt.Case(tt.Int("5"), tt.If(tt.Ident("c"), tt.Block(tt.Break()), tt.Block(tt.Return(nil)))),
		tt.Case(tt.Int("6"), tt.If(tt.Ident("c"), tt.Block(tt.Break()), nil)),
		tt.Default(tt.Break()),
	)))))
	diags := run(t, checks.SwitchFallthrough, nil, tt.Class("S", m))
	// only case 6 can fall into default
	expectCount(t, diags, 1)
}

func TestSwitchFallthroughIntoEmptyLabel(t *testing.T) {
	call := func(name string) *tt.N { return tt.Expr(tt.Call(nil, name)) }
	tests := []struct {
		name string
		sw   *tt.N
		want int
	}{
		{"trailing empty default", tt.Switch(tt.Ident("n"),
			tt.Case(tt.Int("1"), call("g")),
			tt.Default(),
		), 0},
		{"trailing empty case", tt.Switch(tt.Ident("n"),
			tt.Case(tt.Int("1"), call("g")),
			tt.Case(tt.Int("2")),
		), 0},
		{"label with a body", tt.Switch(tt.Ident("n"),
			tt.Case(tt.Int("1"), call("g")),
			tt.Default(call("h")),
		), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := tt.Method("m", tt.Block(tc.sw))
			expectCount(t, run(t, checks.SwitchFallthrough, nil, tt.Class("S", m)), tc.want)
		})
	}
}

func TestArrowSwitchNeverFallsThrough(t *testing.T) {
	m := tt.Method("m", tt.Block(tt.Switch(tt.Ident("n"),
		tt.Case(tt.Int("1"), plus("1")).Flag(tree.FlagArrow),
		tt.Case(tt.Int("2"), plus("2")).Flag(tree.FlagArrow),
		tt.Default(plus("0")).Flag(tree.FlagArrow),
	)))
	expectCount(t, run(t, checks.SwitchFallthrough, nil, tt.Class("S", m)), 0)
}
