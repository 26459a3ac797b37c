package checks_test

import (
	"testing"

	"lintel/internal/checks"
	"lintel/internal/rule"
	tt "lintel/internal/tree/treetest"
)

func elseIfChain(n int) *tt.N {
	chain := tt.Block(printLine(tt.Str("last")))
	for i := range n {
		chain = tt.If(tt.Bin("<", tt.Ident("p"), tt.Int(string(rune('0'+i)))), tt.Block(printLine(tt.Str("x"))), chain)
	}
	return chain
}

func TestComplexityThreshold(t *testing.T) {
	small := tt.Method("small", tt.Block(tt.If(tt.Ident("a"), tt.Block(), nil)))
	big := tt.Method("printArmy", tt.Block(elseIfChain(9))) // 10

	diags := run(t, checks.CyclomaticComplexity, nil, tt.Class("Main", small, big))
	expectCount(t, diags, 0)

	cfg := &rule.Config{}
	if err := cfg.Set("cyclomatic-complexity.max=9"); err != nil {
		t.Fatal(err)
	}
	diags = run(t, checks.CyclomaticComplexity, cfg, tt.Class("Main", small, big))
	expectCount(t, diags, 1)
	d := diags[0]
	if d.Data["complexity"] != "10" || d.Data["max"] != "9" {
		t.Fatalf("data = %v", d.Data)
	}
	if d.Message != "method printArmy has cyclomatic complexity 10 (max 9)" {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestComplexityLambdaIndependent(t *testing.T) {
	lam := tt.Lambda(tt.Block(elseIfChain(3)), tt.Param("int", "p"))
	m := tt.Method("m", tt.Block(tt.Expr(tt.Call(tt.Ident("xs"), "forEach", lam))))
	cfg := &rule.Config{}
	_ = cfg.Set("cyclomatic-complexity.max=2")
	diags := run(t, checks.CyclomaticComplexity, cfg, tt.Class("A", m))
	expectCount(t, diags, 1)
	if diags[0].Data["complexity"] != "4" {
		t.Fatalf("lambda complexity = %s", diags[0].Data["complexity"])
	}
}

func TestComplexitySwitchOption(t *testing.T) {
	sw := tt.Method("calc", tt.Block(tt.Switch(tt.Ident("op"),
		tt.Case(tt.Str("+"), tt.Break()),
		tt.Case(tt.Str("-"), tt.Break()),
		tt.Case(tt.Str("*"), tt.Break()),
		tt.Case(tt.Str("/"), tt.If(tt.Ident("z"), tt.Block(), tt.Block()), tt.Break()),
		tt.Default(tt.Break()),
	)))
	cfg := &rule.Config{}
	_ = cfg.Set("cyclomatic-complexity.max=2")
	_ = cfg.Set("cyclomatic-complexity.switch_block_as_single_decision=true")
	diags := run(t, checks.CyclomaticComplexity, cfg, tt.Class("A", sw))
	expectCount(t, diags, 1)
	if diags[0].Data["complexity"] != "3" {
		t.Fatalf("complexity = %s, want 3", diags[0].Data["complexity"])
	}
}
