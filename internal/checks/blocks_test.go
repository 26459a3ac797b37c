package checks_test

import (
	"testing"

	"lintel/internal/checks"
	"lintel/internal/rule"
	tt "lintel/internal/tree/treetest"
)

func nestedFixture() *tt.N {
	assign := func(v string) *tt.N { return tt.Expr(tt.Assign(tt.Ident("x"), tt.Int(v))) }
	return tt.Class("NestedBlocksExample", tt.Method("main", tt.Block(
		tt.Local("int", "a", tt.Int("10")),
		tt.Block(tt.Expr(tt.Assign(tt.Ident("a"), tt.Int("20"))), printLine(tt.Ident("a"))),
		tt.Switch(tt.Ident("a"),
			tt.Case(tt.Int("0"), assign("1"), tt.Break()),
			tt.Case(tt.Int("1"), printLine(tt.Str("Hello 1")), tt.Block(assign("2"), tt.Break())),
			tt.Case(tt.Int("2"), tt.Block(printLine(tt.Str("Hello 2")), assign("3"), tt.Break())),
			tt.Default(tt.Block(printLine(tt.Str("Unknown case")), tt.Break())),
		),
	)))
}

func TestNestedBlock(t *testing.T) {
	diags := run(t, checks.NestedBlock, nil, nestedFixture())
	// the free-standing block and the block after "Hello 1"
	expectCount(t, diags, 2)

	cfg := &rule.Config{}
	_ = cfg.Set("nested-block.allow_in_switch_case=false")
	expectCount(t, run(t, checks.NestedBlock, cfg, nestedFixture()), 4)
}

func TestSwitchCaseBlock(t *testing.T) {
	diags := run(t, checks.SwitchCaseBlock, nil, nestedFixture())
	// case 0 has bare statements, case 1 has a statement outside its block
	expectCount(t, diags, 2)
	for _, d := range diags {
		if d.Message != "statement outside block" {
			t.Errorf("message = %q", d.Message)
		}
	}

	terminal := tt.Class("T", tt.Method("m", tt.Block(tt.Switch(tt.Ident("a"),
		tt.Case(tt.Int("0"), tt.Block(printLine(tt.Str("zero"))), tt.Break()),
		tt.Case(tt.Int("1"), printLine(tt.Str("one")), tt.Block(tt.Break())),
	))))
	expectCount(t, run(t, checks.SwitchCaseBlock, nil, terminal), 0)

	cfg := &rule.Config{}
	_ = cfg.Set("switch-case-block.allow_terminal_block=false")
	expectCount(t, run(t, checks.SwitchCaseBlock, cfg, terminal), 2)
}

func TestNeedBraces(t *testing.T) {
	m := tt.Method("m", tt.Block(
		tt.If(tt.Ident("a"), printLine(tt.Str("bare")), nil),
		tt.If(tt.Ident("a"), tt.Block(), tt.If(tt.Ident("b"), tt.Block(), printLine(tt.Str("else")))),
		tt.While(tt.Ident("a"), tt.Expr(tt.Call(nil, "step"))),
		tt.For(nil, nil, nil, tt.Block()),
		tt.ForEach("String", "s", tt.Ident("xs"), printLine(tt.Ident("s"))),
		tt.DoWhile(tt.Block(), tt.Ident("a")),
	))
	diags := run(t, checks.NeedBraces, nil, tt.Class("N", m))
	// if body, else body, while body, foreach body
	expectCount(t, diags, 4)
}
