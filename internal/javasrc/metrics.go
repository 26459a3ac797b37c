package javasrc

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("lintel.javasrc")

var (
	parseLatency metric.Float64Histogram
	parseErrors  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseLatency, err = meter.Float64Histogram(
			"lintel_parse_duration_seconds",
			metric.WithDescription("Duration of Java source parsing"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseErrors, err = meter.Int64Counter(
			"lintel_parse_errors_total",
			metric.WithDescription("Files that could not be parsed, by reason"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordParse(ctx context.Context, duration time.Duration, size int, err error) {
	if initMetrics() != nil {
		return
	}
	parseLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("success", err == nil),
		attribute.Int("size_bucket", sizeBucket(size)),
	))
	if err != nil {
		parseErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason(err))))
	}
}

// sizeBucket is log2 of the size in KiB, to keep attribute cardinality low.
func sizeBucket(size int) int {
	b := 0
	for kib := size / 1024; kib > 0; kib >>= 1 {
		b++
	}
	return b
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrParseFailed):
		return "syntax"
	case errors.Is(err, ErrEmptySource):
		return "empty"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
