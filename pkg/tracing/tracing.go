// Package tracing wraps each stage of the toycc compile pipeline (lex,
// parse, analyze, irgen, emit) in its own OpenTelemetry span under a
// per-compilation root span, so a single compile can be inspected
// end-to-end in a trace viewer or, by default, on stdout.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "toycc/compiler"

// Stage names used as span names under a compile's root span, in the
// order the pipeline runs them.
const (
	StageLex     = "lex"
	StageParse   = "parse"
	StageAnalyze = "analyze"
	StageIRGen   = "irgen"
	StageEmit    = "emit"
)

// Config selects where spans go.
type Config struct {
	// Exporter is "stdout" or "otlp".
	Exporter string
	// OTLPEndpoint is used when Exporter is "otlp".
	OTLPEndpoint string
}

// Provider owns the SDK tracer provider and must be shut down on exit.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init builds a Provider from cfg and installs it as the global tracer
// provider. An empty cfg.Exporter defaults to "stdout", matching the
// teacher's own default.
func Init(cfg Config) (*Provider, error) {
	if cfg.Exporter == "" {
		cfg.Exporter = "stdout"
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		exporter, err = otlptrace.New(context.Background(), client)
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("tracing: creating exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName("toycc"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes and stops the tracer provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// StartCompile opens the root span for one compile invocation. The span is
// named "compile" and carries compileID as its compile_id attribute; every
// stage span started from the returned context nests under it.
func StartCompile(ctx context.Context, compileID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "compile",
		trace.WithAttributes(attribute.String("compile_id", compileID)))
	return ctx, span
}

// StartStage opens a child span for a single pipeline stage. Callers
// must call the returned trace.Span's End regardless of error, after
// reporting the error via FailStage on failure.
func StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, stage)
}

// FailStage records err on span and marks it as an error status,
// mirroring how each pipeline stage reports a compile failure.
func FailStage(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
