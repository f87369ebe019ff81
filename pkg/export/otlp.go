package export

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// ServiceName is the service.name resource attribute on pushed spans
const ServiceName = "flowtrace"

// Push sends a finished tree to an OTLP/HTTP collector at endpoint
// (host:port, e.g. "localhost:4318") over plain HTTP. Spans are flushed
// before Push returns. It returns how many spans were emitted.
func Push(ctx context.Context, endpoint string, snap execution.Snapshot) (int, error) {
	if endpoint == "" {
		return 0, errors.New("otlp endpoint is empty")
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		return 0, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	n := Spans(ctx, tp.Tracer(InstrumentationName), snap)
	if err := tp.Shutdown(ctx); err != nil {
		return n, fmt.Errorf("failed to flush spans to %s: %w", endpoint, err)
	}
	return n, nil
}
