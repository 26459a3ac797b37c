package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"lintel/internal/checks"
	"lintel/internal/diag"
	"lintel/internal/engine"
	"lintel/internal/rule"
	"lintel/internal/tree"
	"lintel/internal/trace"
	tt "lintel/internal/tree/treetest"
	"lintel/internal/walk"
)

func printLine(x *tt.N) *tt.N {
	return tt.Expr(tt.Call(tt.Sel(tt.Ident("System"), "out"), "println", x))
}

// sample has one unbraced if in each of two methods; the second method
// suppresses need-braces.
func sample(t *testing.T) *tree.Unit {
	t.Helper()
	u, _ := tt.MustBuild(t, "src/Sample.java",
		tt.Class("Sample",
			tt.Method("plain", tt.Block(
				tt.If(tt.Bin(">", tt.Ident("a"), tt.Int("1")), printLine(tt.Str("a")), nil),
			), tt.Param("int", "a")),
			tt.Method("quiet", tt.Block(
				tt.If(tt.Bin(">", tt.Ident("b"), tt.Int("1")), printLine(tt.Str("b")), nil),
			), tt.Param("int", "b")).Annotated("SuppressWarnings", tt.Str("need-braces")),
		),
	)
	return u
}

func only(ids ...string) *rule.Config {
	cfg := &rule.Config{}
	for _, d := range checks.Default().All() {
		cfg.Enable(d.ID, false)
	}
	for _, id := range ids {
		cfg.Enable(id, true)
	}
	return cfg
}

func TestAnalyzeSuppresses(t *testing.T) {
	eng, err := engine.New(checks.Default(), only(checks.NeedBraces), engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	diags, err := eng.Analyze(t.Context(), sample(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(diags))
	}
	if diags[0].Suppressed || !diags[1].Suppressed {
		t.Errorf("suppressed = %v, %v; want false, true", diags[0].Suppressed, diags[1].Suppressed)
	}
	if diags[0].Location.Start.Line == 0 || diags[0].Location.Path != "src/Sample.java" {
		t.Errorf("location not resolved: %+v", diags[0].Location)
	}
	if !diag.Less(&diags[0], &diags[1]) {
		t.Error("diagnostics not sorted")
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	eng, err := engine.New(checks.Default(), nil, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	u := sample(t)
	first, err := eng.Analyze(t.Context(), u)
	if err != nil {
		t.Fatal(err)
	}
	second, err := eng.Analyze(t.Context(), u)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%s\n---\n%s",
			diag.FormatGoldenDiagnostics(first, false), diag.FormatGoldenDiagnostics(second, false))
	}
}

func faultyRegistry() *rule.Registry {
	reg := rule.NewRegistry()
	reg.Register(rule.Descriptor{
		ID:               "boom",
		Severity:         diag.SevWarning,
		Kinds:            tree.Kinds(tree.KindIf),
		EnabledByDefault: true,
		New: func(*rule.Setup) walk.Visitor {
			return walk.Funcs{OnEnter: func(*walk.Context) { panic("index out of range") }}
		},
	})
	reg.Register(rule.Descriptor{
		ID:               "every-method",
		Severity:         diag.SevInfo,
		Kinds:            tree.Kinds(tree.KindMethod),
		EnabledByDefault: true,
		New: func(s *rule.Setup) walk.Visitor {
			return walk.Funcs{OnEnter: func(c *walk.Context) {
				s.ReportNode(c.ID(), "method %s", c.Node().Text).Emit()
			}}
		},
	})
	return reg
}

func TestRuleFailureIsIsolated(t *testing.T) {
	eng, err := engine.New(faultyRegistry(), nil, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	diags, err := eng.Analyze(t.Context(), sample(t))
	if err != nil {
		t.Fatal(err)
	}
	var failures, methods int
	for _, d := range diags {
		switch d.RuleID {
		case diag.RuleRuleFailure:
			failures++
			if d.Data["rule"] != "boom" || d.Severity != diag.SevError {
				t.Errorf("bad failure diagnostic: %+v", d)
			}
			if d.Suppressed {
				t.Error("rule failures must never be suppressed")
			}
		case "every-method":
			methods++
		}
	}
	// the faulting rule is disabled after its first panic
	if failures != 1 || methods != 2 {
		t.Fatalf("failures=%d methods=%d\n%s", failures, methods, diag.FormatGoldenDiagnostics(diags, false))
	}
}

func TestFailFastReturnsFailure(t *testing.T) {
	eng, err := engine.New(faultyRegistry(), &rule.Config{FailFast: true}, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Analyze(t.Context(), sample(t))
	var rf *walk.RuleFailure
	if !errors.As(err, &rf) || rf.RuleID != "boom" {
		t.Fatalf("got %v, want boom rule failure", err)
	}
	if !errors.Is(err, walk.ErrRuleFailure) {
		t.Error("error does not wrap ErrRuleFailure")
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	eng, err := engine.New(checks.Default(), nil, engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := eng.Analyze(ctx, sample(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := &rule.Config{Rules: map[string]rule.Settings{"no-such-rule": {}}}
	_, err := engine.New(checks.Default(), cfg, engine.Options{})
	var ce *rule.ConfigurationError
	if !errors.As(err, &ce) || ce.Rule != "no-such-rule" {
		t.Fatalf("got %v", err)
	}
}

func TestRuleTracePointsAreOrdered(t *testing.T) {
	u, _ := tt.MustBuild(t, "src/Leaky.java", tt.Class("Leaky",
		tt.Method("m", tt.Block(
			tt.Local("InputStream", "in", tt.New("FileInputStream", tt.Str("a"))),
			tt.If(tt.Ident("a"), printLine(tt.Str("a")), nil),
		), tt.Param("boolean", "a")),
	))
	eng, err := engine.New(checks.Default(), only(checks.ResourceLeak, checks.NeedBraces), engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	// порядок map меняется от запуска к запуску
	for range 8 {
		var buf bytes.Buffer
		ctx := trace.WithTracer(t.Context(), trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatNDJSON))
		if _, err := eng.Analyze(ctx, u); err != nil {
			t.Fatal(err)
		}
		var rules []string
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var ev struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				t.Fatalf("bad trace line %q: %v", line, err)
			}
			if strings.HasPrefix(ev.Name, "rule:") {
				rules = append(rules, ev.Name)
			}
		}
		want := []string{"rule:" + checks.NeedBraces, "rule:" + checks.ResourceLeak}
		if !slices.Equal(rules, want) {
			t.Fatalf("rule points = %v, want %v", rules, want)
		}
	}
}
