// Package engine runs the enabled rules over one unit and turns the raw
// reports into the unit's final, suppression-aware diagnostic list.
package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel/codes"

	"lintel/internal/diag"
	"lintel/internal/rule"
	"lintel/internal/suppress"
	"lintel/internal/trace"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

// Options tune an Engine.
type Options struct {
	Logger hclog.Logger
	// MaxPerUnit caps raw reports kept per unit; 0 means no limit.
	MaxPerUnit int
}

// Engine is immutable after New and safe for concurrent Analyze calls.
type Engine struct {
	reg  *rule.Registry
	cfg  *rule.Config
	log  hclog.Logger
	opts Options
}

// New validates cfg against reg. Configuration errors surface here, before
// any unit is analyzed.
func New(reg *rule.Registry, cfg *rule.Config, opts Options) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("engine: nil registry")
	}
	if cfg == nil {
		cfg = &rule.Config{}
	}
	if err := cfg.Validate(reg); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Engine{reg: reg, cfg: cfg, log: log.Named("engine"), opts: opts}, nil
}

func (e *Engine) Registry() *rule.Registry { return e.reg }

func (e *Engine) Config() *rule.Config { return e.cfg }

// Analyze evaluates every enabled rule against u in a single walk.
//
// A panicking rule becomes a rule-failure diagnostic and the other rules keep
// running. In fail-fast mode the failure is returned instead, as is a
// cancellation of ctx. The result is sorted and free of duplicates; calling
// Analyze twice on the same unit yields equal lists.
func (e *Engine) Analyze(ctx context.Context, u *tree.Unit) ([]diag.Diagnostic, error) {
	started := time.Now()
	bag := diag.NewBag(e.opts.MaxPerUnit)
	// повторы отсекаются до лимита MaxPerUnit
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	subs := e.reg.Subscribers(u, e.cfg, rep)

	ctx, otelSpan := startAnalyzeSpan(ctx, u.Path(), len(subs))
	defer otelSpan.End()
	ctx, span := trace.Start(ctx, trace.ScopeUnit, "analyze:"+u.Path())
	tr := trace.FromContext(ctx)

	err := walk.Walk(ctx, u, subs, walk.Options{
		FailFast: e.cfg.FailFast,
		OnFailure: func(f *walk.RuleFailure) {
			e.noteFailure(ctx, u, f)
			bag.Add(failureDiagnostic(u, f))
		},
	})
	if err != nil {
		var rf *walk.RuleFailure
		if errors.As(err, &rf) {
			e.noteFailure(ctx, u, rf)
		}
		otelSpan.RecordError(err)
		otelSpan.SetStatus(codes.Error, err.Error())
		span.End(err.Error())
		recordAnalysis(ctx, time.Since(started), nil, false)
		return nil, fmt.Errorf("%s: %w", u.Path(), err)
	}

	diags := suppress.Build(u).Apply(bag.Items())
	diags = diag.Dedup(diags)
	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(&diags[i], &diags[j]) })

	if tr.Level() >= trace.LevelDebug {
		counts := countByRule(diags)
		for _, id := range slices.Sorted(maps.Keys(counts)) {
			trace.Point(tr, trace.ScopeRule, "rule:"+id, strconv.Itoa(counts[id]), span.ID())
		}
	}
	recordAnalysis(ctx, time.Since(started), diags, true)
	span.WithExtra("diagnostics", strconv.Itoa(len(diags))).End("")
	return diags, nil
}

func (e *Engine) noteFailure(ctx context.Context, u *tree.Unit, f *walk.RuleFailure) {
	recordFailure(ctx, f.RuleID)
	trace.Failure(trace.FromContext(ctx), trace.ScopeRule, "rule:"+f.RuleID, fmt.Sprint(f.Value))
	e.log.Warn("rule failed", "rule", f.RuleID, "path", u.Path(), "node", f.Kind.String(), "phase", f.Phase, "panic", fmt.Sprint(f.Value))
	e.log.Trace("rule failure stack", "rule", f.RuleID, "stack", string(f.Stack))
}

func failureDiagnostic(u *tree.Unit, f *walk.RuleFailure) diag.Diagnostic {
	d := diag.New(diag.RuleRuleFailure, diag.SevError, f.Span,
		fmt.Sprintf("rule %s failed on %s: %v", f.RuleID, f.Kind, f.Value)).
		WithData("rule", f.RuleID).
		WithData("phase", f.Phase)
	d.Location = u.Location(f.Span)
	return d
}

func countByRule(diags []diag.Diagnostic) map[string]int {
	out := make(map[string]int)
	for i := range diags {
		out[diags[i].RuleID]++
	}
	return out
}
