package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Recorder bundles tracing, metrics, and logging for memoized calls.
// Begin opens a span before the call; the returned Call records the
// outcome once it is known.
//
// Contract:
//   - Concurrency: a Recorder is safe for concurrent use; each Begin
//     returns an independent Call.
//   - Context: Begin propagates context through the tracing span.
//   - Errors: errors passed to End are recorded and never modified.
type Recorder struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewRecorder creates a new Recorder with the given observability components.
func NewRecorder(tracer Tracer, metrics Metrics, logger Logger) *Recorder {
	return &Recorder{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// RecorderFromObserver creates a Recorder from an Observer.
// This is a convenience function for common use cases.
func RecorderFromObserver(obs Observer) (*Recorder, error) {
	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewRecorder(tracer, metrics, obs.Logger()), nil
}

// Call is one in-flight memoized call being recorded.
type Call struct {
	recorder *Recorder
	meta     FuncMeta
	span     trace.Span
	start    time.Time
}

// Begin opens a span for a memoized call and starts its clock.
func (r *Recorder) Begin(ctx context.Context, meta FuncMeta) (context.Context, *Call) {
	ctx, span := r.tracer.StartSpan(ctx, meta)
	return ctx, &Call{
		recorder: r,
		meta:     meta,
		span:     span,
		start:    time.Now(),
	}
}

// End closes the span and records metrics and a log line for the call.
func (c *Call) End(ctx context.Context, outcome Outcome, err error) {
	duration := time.Since(c.start)

	c.recorder.tracer.EndSpan(c.span, outcome, err)
	c.recorder.metrics.RecordCall(ctx, c.meta, duration, outcome, err)

	funcLogger := c.recorder.logger.WithFunc(c.meta)
	fields := []Field{
		{Key: "outcome", Value: string(outcome)},
		{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	}

	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		funcLogger.Error(ctx, "memoized call failed", fields...)
	} else {
		funcLogger.Info(ctx, "memoized call completed", fields...)
	}
}
