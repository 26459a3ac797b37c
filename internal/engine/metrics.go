package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"lintel/internal/diag"
)

var (
	tracer = otel.Tracer("lintel.engine")
	meter  = otel.Meter("lintel.engine")
)

var (
	analysisLatency metric.Float64Histogram
	diagnosticTotal metric.Int64Counter
	failureTotal    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics is safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"lintel_unit_analysis_duration_seconds",
			metric.WithDescription("Duration of rule evaluation for one unit"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticTotal, err = meter.Int64Counter(
			"lintel_diagnostics_total",
			metric.WithDescription("Diagnostics produced, by rule and severity"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		failureTotal, err = meter.Int64Counter(
			"lintel_rule_failures_total",
			metric.WithDescription("Rule callbacks that panicked"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startAnalyzeSpan(ctx context.Context, path string, rules int) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, "Engine.Analyze",
		oteltrace.WithAttributes(
			attribute.String("lintel.path", path),
			attribute.Int("lintel.rules", rules),
		),
	)
}

func recordAnalysis(ctx context.Context, duration time.Duration, diags []diag.Diagnostic, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	analysisLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("success", success),
	))
	for i := range diags {
		diagnosticTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("rule", diags[i].RuleID),
			attribute.String("severity", diags[i].Severity.Label()),
			attribute.Bool("suppressed", diags[i].Suppressed),
		))
	}
}

func recordFailure(ctx context.Context, ruleID string) {
	if err := initMetrics(); err != nil {
		return
	}
	failureTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", ruleID)))
}
