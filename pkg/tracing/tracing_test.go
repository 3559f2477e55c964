package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerWithoutEndpoint(t *testing.T) {
	t.Setenv(endpointEnvKey, "")
	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tp.Shutdown(context.Background())

	if tracer == nil {
		t.Fatal("expected tracer")
	}
	if otel.GetTracerProvider() != tp {
		t.Fatal("expected global provider to be installed")
	}
}

func TestInitTracerExportsToEndpoint(t *testing.T) {
	orig := newExporter
	defer func() { newExporter = orig }()

	exp := tracetest.NewInMemoryExporter()
	var gotEndpoint string
	newExporter = func(_ context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		gotEndpoint = endpoint
		return exp, nil
	}
	t.Setenv(endpointEnvKey, "http://collector:4317")

	tp, tracer, err := InitTracerFor(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotEndpoint != "collector:4317" {
		t.Fatalf("expected scheme stripped, got %q", gotEndpoint)
	}

	_, span := tracer.Start(context.Background(), "op")
	span.End()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "op" {
		t.Fatalf("unexpected spans %+v", spans)
	}
	_ = tp.Shutdown(context.Background())
}

func TestInitTracerExporterError(t *testing.T) {
	orig := newExporter
	defer func() { newExporter = orig }()
	newExporter = func(context.Context, string) (sdktrace.SpanExporter, error) {
		return nil, errors.New("dial failed")
	}
	t.Setenv(endpointEnvKey, "collector:4317")

	if _, _, err := InitTracer(context.Background()); err == nil {
		t.Fatal("expected exporter error")
	}
}
