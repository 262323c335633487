package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestFuncMeta_SpanNameWithNamespace verifies span name includes namespace.
func TestFuncMeta_SpanNameWithNamespace(t *testing.T) {
	meta := FuncMeta{
		Namespace: "pricing",
		Name:      "quote",
	}

	expected := "memo.call.pricing.quote"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestFuncMeta_SpanNameWithoutNamespace verifies span name without namespace.
func TestFuncMeta_SpanNameWithoutNamespace(t *testing.T) {
	meta := FuncMeta{
		Namespace: "",
		Name:      "compute",
	}

	expected := "memo.call.compute"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestFuncMeta_FuncID verifies ID generation with and without namespace.
func TestFuncMeta_FuncID(t *testing.T) {
	tests := []struct {
		name     string
		meta     FuncMeta
		expected string
	}{
		{
			name:     "with namespace",
			meta:     FuncMeta{Namespace: "pricing", Name: "quote"},
			expected: "pricing.quote",
		},
		{
			name:     "without namespace",
			meta:     FuncMeta{Namespace: "", Name: "compute"},
			expected: "compute",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.meta.FuncID(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	// Set up in-memory span recorder
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := FuncMeta{
		Namespace: "pricing",
		Name:      "quote",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, OutcomeHit, nil)
	_ = ctx // Suppress unused warning

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	// Verify span name
	if s.Name() != "memo.call.pricing.quote" {
		t.Errorf("expected span name 'memo.call.pricing.quote', got %q", s.Name())
	}

	// Verify attributes
	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	if v, ok := attrMap["memo.func"]; !ok || v.AsString() != "pricing.quote" {
		t.Errorf("expected memo.func='pricing.quote', got %v", v)
	}
	if v, ok := attrMap["memo.namespace"]; !ok || v.AsString() != "pricing" {
		t.Errorf("expected memo.namespace='pricing', got %v", v)
	}
	if v, ok := attrMap["memo.name"]; !ok || v.AsString() != "quote" {
		t.Errorf("expected memo.name='quote', got %v", v)
	}
	if v, ok := attrMap["memo.error"]; !ok || v.AsBool() != false {
		t.Errorf("expected memo.error=false, got %v", v)
	}
	if v, ok := attrMap["memo.outcome"]; !ok || v.AsString() != "hit" {
		t.Errorf("expected memo.outcome='hit', got %v", v)
	}
}

// TestTracer_SpanAttributesMinimal verifies only required attributes when minimal meta.
func TestTracer_SpanAttributesMinimal(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := FuncMeta{
		Name: "compute",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, OutcomeMiss, nil)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	attrs := s.Attributes()
	attrMap := make(map[string]attribute.Value)
	for _, a := range attrs {
		attrMap[string(a.Key)] = a.Value
	}

	// Required attributes should be present
	if _, ok := attrMap["memo.func"]; !ok {
		t.Error("expected memo.func attribute")
	}
	if _, ok := attrMap["memo.name"]; !ok {
		t.Error("expected memo.name attribute")
	}
	if _, ok := attrMap["memo.error"]; !ok {
		t.Error("expected memo.error attribute")
	}

	// Namespace should NOT be present when empty
	if v, ok := attrMap["memo.namespace"]; ok && v.AsString() != "" {
		t.Errorf("expected no memo.namespace, got %v", v)
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := FuncMeta{Name: "child_func"}

	// Create parent span
	parentCtx, parentSpan := tracer.Start(context.Background(), "parent")

	// Create child span through our tracer
	childCtx, childSpan := tr.StartSpan(parentCtx, meta)
	tr.EndSpan(childSpan, OutcomeMiss, nil)
	parentSpan.End()
	_ = childCtx

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	// Find the child span (the one with memo.call prefix)
	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "memo.call.child_func" {
			child = s
			break
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}

	// Verify parent-child relationship
	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if !child.Parent().SpanID().IsValid() {
		t.Error("child span should have valid parent span ID")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	tr := &tracerImpl{tracer: tracer}
	meta := FuncMeta{Name: "failing_func"}

	ctx, span := tr.StartSpan(context.Background(), meta)
	testErr := errors.New("computation failed")
	tr.EndSpan(span, OutcomeError, testErr)
	_ = ctx

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]

	// Verify error status
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}

	// Verify memo.error attribute
	attrs := s.Attributes()
	var callError bool
	for _, a := range attrs {
		if string(a.Key) == "memo.error" {
			callError = a.Value.AsBool()
			break
		}
	}
	if !callError {
		t.Error("expected memo.error=true")
	}
}
