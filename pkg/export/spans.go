// Package export replays a finished execution tree as OpenTelemetry
// spans, keeping each record's own timestamps and parent links.
package export

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/flowtrace/pkg/execution"
)

// InstrumentationName is the tracer name used by Replay
const InstrumentationName = "github.com/psantana5/flowtrace"

// Spans emits one span per closed record through tracer and returns how
// many were emitted. Open records and their subtrees are skipped.
func Spans(ctx context.Context, tracer trace.Tracer, snap execution.Snapshot) int {
	n := 0
	for _, root := range snap.RootRecords() {
		n += emit(ctx, tracer, snap, root)
	}
	return n
}

func emit(ctx context.Context, tracer trace.Tracer, snap execution.Snapshot, rec *execution.Record) int {
	if !rec.Closed {
		return 0
	}

	ctx, span := tracer.Start(ctx, rec.Name,
		trace.WithTimestamp(rec.StartTime),
		trace.WithAttributes(Attributes(rec)...),
	)
	if rec.Failed() {
		err := rec.Err
		if err == nil {
			err = panicError{}
		}
		span.RecordError(err, trace.WithTimestamp(rec.EndTime))
		span.SetStatus(codes.Error, rec.ErrorMessage())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	n := 1
	for _, child := range snap.Children(rec.ID) {
		n += emit(ctx, tracer, snap, child)
	}
	span.End(trace.WithTimestamp(rec.EndTime))
	return n
}

type panicError struct{}

func (panicError) Error() string { return "panic" }

// Attributes returns the span attributes for a record
func Attributes(rec *execution.Record) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int("flowtrace.level", rec.Level),
		attribute.Bool("flowtrace.slow", rec.IsSlow),
		attribute.Float64("flowtrace.threshold_ms", float64(rec.Threshold)/float64(time.Millisecond)),
		attribute.Bool("flowtrace.async", rec.Async),
	}
	if rec.MemoryDelta != nil {
		attrs = append(attrs, attribute.Int64("flowtrace.memory_delta", *rec.MemoryDelta))
	}
	return attrs
}

// SpanSummary is a flattened view of one replayed span
type SpanSummary struct {
	Name       string        `json:"name" yaml:"name"`
	TraceID    string        `json:"trace_id" yaml:"trace_id"`
	SpanID     string        `json:"span_id" yaml:"span_id"`
	ParentID   string        `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Status     string        `json:"status" yaml:"status"`
	Attributes int           `json:"attributes" yaml:"attributes"`
}

// Replay runs Spans against an in-memory SDK provider and returns the
// ended spans in the order they finished
func Replay(ctx context.Context, snap execution.Snapshot) ([]SpanSummary, error) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(recorder),
	)

	Spans(ctx, tp.Tracer(InstrumentationName), snap)
	if err := tp.Shutdown(ctx); err != nil {
		return nil, err
	}

	ended := recorder.Ended()
	out := make([]SpanSummary, 0, len(ended))
	for _, s := range ended {
		sum := SpanSummary{
			Name:       s.Name(),
			TraceID:    s.SpanContext().TraceID().String(),
			SpanID:     s.SpanContext().SpanID().String(),
			Duration:   s.EndTime().Sub(s.StartTime()),
			Status:     s.Status().Code.String(),
			Attributes: len(s.Attributes()),
		}
		if s.Parent().IsValid() {
			sum.ParentID = s.Parent().SpanID().String()
		}
		out = append(out, sum)
	}
	return out, nil
}
