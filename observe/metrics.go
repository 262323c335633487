package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records call metrics for memoized functions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a memoized call with duration, outcome, and error status.
	RecordCall(ctx context.Context, meta FuncMeta, duration time.Duration, outcome Outcome, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	hitCount     metric.Int64Counter
	missCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"memo.call.total",
		metric.WithDescription("Total number of memoized calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"memo.call.hits",
		metric.WithDescription("Total number of cache hits"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	missCount, err := meter.Int64Counter(
		"memo.call.misses",
		metric.WithDescription("Total number of cache misses"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"memo.call.errors",
		metric.WithDescription("Total number of failed memoized calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"memo.call.duration_ms",
		metric.WithDescription("Memoized call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		hitCount:     hitCount,
		missCount:    missCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordCall records metrics for a memoized call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta FuncMeta, duration time.Duration, outcome Outcome, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("memo.func", meta.FuncID()),
		attribute.String("memo.name", meta.Name),
		attribute.String("memo.outcome", string(outcome)),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("memo.namespace", meta.Namespace))
	}

	opt := metric.WithAttributes(attrs...)

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	switch outcome {
	case OutcomeHit:
		m.hitCount.Add(ctx, 1, opt)
	case OutcomeMiss, OutcomeCorrupt:
		// A corrupt entry resolves as a computed miss
		m.missCount.Add(ctx, 1, opt)
	}

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	durationMs := float64(duration.Milliseconds())
	m.durationHist.Record(ctx, durationMs, opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta FuncMeta, duration time.Duration, outcome Outcome, err error) {
}
