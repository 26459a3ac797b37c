package checks_test

import (
	"strings"
	"testing"

	"lintel/internal/checks"
	"lintel/internal/diag"
	"lintel/internal/rule"
	tt "lintel/internal/tree/treetest"
	"lintel/internal/walk"
)

// run analyzes decls with the single rule id enabled and returns its findings.
func run(t *testing.T, id string, cfg *rule.Config, decls ...*tt.N) []diag.Diagnostic {
	t.Helper()
	u, _ := tt.MustBuild(t, "Test.java", decls...)
	d, ok := checks.Default().Lookup(id)
	if !ok {
		t.Fatalf("rule %s not registered", id)
	}
	eff := cfg.Effective(d)
	eff.Enabled = true
	var out []diag.Diagnostic
	rep := diag.ReporterFunc(func(x diag.Diagnostic) { out = append(out, x) })
	v := d.New(rule.NewSetup(u, id, eff, rep))
	subs := []walk.Subscriber{{RuleID: id, Kinds: d.Kinds, Visitor: v}}
	if err := walk.Walk(t.Context(), u, subs, walk.Options{FailFast: true}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	return out
}

func messages(diags []diag.Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, d.Message)
	}
	return strings.Join(parts, "\n")
}

func expectCount(t *testing.T, diags []diag.Diagnostic, want int) {
	t.Helper()
	if len(diags) != want {
		t.Fatalf("got %d diagnostics, want %d:\n%s", len(diags), want, messages(diags))
	}
}

func printLine(x *tt.N) *tt.N {
	return tt.Expr(tt.Call(tt.Sel(tt.Ident("System"), "out"), "println", x))
}

func cmp(op, a, b string) *tt.N { return tt.Bin(op, tt.Ident(a), tt.Ident(b)) }

func TestDefaultRegistry(t *testing.T) {
	reg := checks.Default()
	want := []string{
		checks.ConstantCondition, checks.CovariantEquals, checks.CyclomaticComplexity,
		checks.DefaultNotLast, checks.DuplicateCondition, checks.EqualsContract,
		checks.BooleanExpressionLength, checks.EqualsWithoutHashCode, checks.MissingSwitchDefault,
		checks.NeedBraces, checks.NestedBlock, checks.ResourceLeak, checks.SealedSubtypeModifier,
		checks.SimplifiableCondition, checks.SwitchCaseBlock, checks.SwitchFallthrough,
	}
	if reg.Len() != len(want) {
		t.Fatalf("registry has %d rules, want %d", reg.Len(), len(want))
	}
	for _, id := range want {
		d, ok := reg.Lookup(id)
		if !ok {
			t.Errorf("missing %s", id)
			continue
		}
		if d.Inspector == "" || d.Summary == "" || d.Category == "" {
			t.Errorf("%s: incomplete metadata", id)
		}
	}
	if d, _ := reg.Lookup(checks.SwitchCaseBlock); d.EnabledByDefault {
		t.Error("switch-case-block should be off by default")
	}
	if d, _ := reg.Lookup(checks.DefaultNotLast); d.Severity != diag.SevInfo {
		t.Error("default-not-last should be informational")
	}
}
