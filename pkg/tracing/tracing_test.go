package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newRecordingTracer installs an in-memory span recorder as the global
// tracer provider and returns it for assertions, bypassing Init (which
// talks to stdout/OTLP exporters we don't want in a unit test).
func newRecordingTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestStartCompile_RootSpanCarriesCompileID(t *testing.T) {
	sr := newRecordingTracer(t)

	ctx, span := StartCompile(context.Background(), "abc-123")
	span.End()
	_ = ctx

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].Name() != "compile" {
		t.Fatalf("expected span name 'compile', got %q", spans[0].Name())
	}
	found := false
	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == "compile_id" && attr.Value.AsString() == "abc-123" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected compile_id attribute on root span, got %v", spans[0].Attributes())
	}
}

func TestStartStage_NestsUnderCompileSpan(t *testing.T) {
	sr := newRecordingTracer(t)

	ctx, root := StartCompile(context.Background(), "abc")
	_, stage := StartStage(ctx, StageParse)
	stage.End()
	root.End()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	var stageSpan, rootSpan sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == StageParse {
			stageSpan = s
		}
		if s.Name() == "compile" {
			rootSpan = s
		}
	}
	if stageSpan == nil || rootSpan == nil {
		t.Fatalf("expected both a root and a stage span, got %v", spans)
	}
	if stageSpan.Parent().SpanID() != rootSpan.SpanContext().SpanID() {
		t.Fatalf("expected stage span's parent to be the root span")
	}
}

func TestFailStage_SetsErrorStatus(t *testing.T) {
	sr := newRecordingTracer(t)

	_, stage := StartStage(context.Background(), StageEmit)
	FailStage(stage, errors.New("boom"))
	stage.End()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].Status().Code != 1 /* codes.Error */ {
		t.Fatalf("expected error status, got %v", spans[0].Status())
	}
}
