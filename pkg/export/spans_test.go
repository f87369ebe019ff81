package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/psantana5/flowtrace/pkg/execution"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleTree() execution.Snapshot {
	tree := execution.NewTree()
	root := tree.Open("handle", 0, execution.NoParent, t0, 100*time.Millisecond)
	child := tree.Open("query", 1, root, t0.Add(time.Millisecond), 100*time.Millisecond)
	tree.Open("pending", 1, root, t0.Add(2*time.Millisecond), 100*time.Millisecond)

	delta := int64(2048)
	tree.Close(child, execution.CloseInfo{EndTime: t0.Add(150 * time.Millisecond), Err: errors.New("deadlock"), MemoryDelta: &delta})
	tree.Close(root, execution.CloseInfo{EndTime: t0.Add(200 * time.Millisecond)})
	return tree.Snapshot()
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	n := Spans(context.Background(), tp.Tracer("test"), sampleTree())
	assert.Equal(t, 2, n, "open records are skipped")

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	query, handle := ended[0], ended[1]
	assert.Equal(t, "query", query.Name())
	assert.Equal(t, "handle", handle.Name())

	assert.Equal(t, handle.SpanContext().SpanID(), query.Parent().SpanID())
	assert.Equal(t, handle.SpanContext().TraceID(), query.SpanContext().TraceID())
	assert.False(t, handle.Parent().IsValid())

	assert.Equal(t, t0, handle.StartTime())
	assert.Equal(t, t0.Add(200*time.Millisecond), handle.EndTime())
	assert.Equal(t, codes.Ok, handle.Status().Code)

	assert.Equal(t, codes.Error, query.Status().Code)
	assert.Equal(t, "deadlock", query.Status().Description)
	require.Len(t, query.Events(), 1, "the error is recorded as an event")

	slow, ok := attr(query.Attributes(), "flowtrace.slow")
	require.True(t, ok)
	assert.True(t, slow.AsBool())
	mem, ok := attr(query.Attributes(), "flowtrace.memory_delta")
	require.True(t, ok)
	assert.Equal(t, int64(2048), mem.AsInt64())
	level, ok := attr(query.Attributes(), "flowtrace.level")
	require.True(t, ok)
	assert.Equal(t, int64(1), level.AsInt64())

	_, ok = attr(handle.Attributes(), "flowtrace.memory_delta")
	assert.False(t, ok)
}

func TestSpansPanicked(t *testing.T) {
	tree := execution.NewTree()
	tree.AddClosed("crash", t0, time.Second, execution.CloseInfo{EndTime: t0, Panicked: true})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	Spans(context.Background(), tp.Tracer("test"), tree.Snapshot())

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "panic", ended[0].Status().Description)
}

func TestReplay(t *testing.T) {
	spans, err := Replay(context.Background(), sampleTree())
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, "query", spans[0].Name)
	assert.Equal(t, spans[1].SpanID, spans[0].ParentID)
	assert.Empty(t, spans[1].ParentID)
	assert.Equal(t, 149*time.Millisecond, spans[0].Duration)
	assert.Equal(t, "Error", spans[0].Status)
	assert.Equal(t, "Ok", spans[1].Status)

	spans, err = Replay(context.Background(), execution.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, spans)
}
