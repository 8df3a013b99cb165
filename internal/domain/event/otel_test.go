package event

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestEvent_SpanAttributes(t *testing.T) {
	e := NewAdminApproved(testSnapshot(), testActor, WithCorrelationID("batch-7"))

	attrs := attribute.NewSet(e.SpanAttributes()...)

	id, ok := attrs.Value("event.id")
	require.True(t, ok)
	assert.Equal(t, e.ID().String(), id.AsString())
	typ, ok := attrs.Value("event.type")
	require.True(t, ok)
	assert.Equal(t, TypeAdminApproved.String(), typ.AsString())
	corr, ok := attrs.Value("event.correlation_id")
	require.True(t, ok)
	assert.Equal(t, "batch-7", corr.AsString())
}

func TestEvent_LogAttrs(t *testing.T) {
	e := NewSubmissionCreated(testSnapshot())

	got := make(map[string]string)
	for _, a := range e.LogAttrs() {
		attr, ok := a.(slog.Attr)
		require.True(t, ok)
		got[attr.Key] = attr.Value.String()
	}

	assert.Equal(t, map[string]string{
		"event.id":       e.ID().String(),
		"event.type":     TypeSubmissionCreated.String(),
		"correlation.id": e.ID().String(),
	}, got)
}

func TestEvent_NilAttributes(t *testing.T) {
	var e *Event

	assert.Nil(t, e.SpanAttributes())
	assert.Nil(t, e.LogAttrs())
}

func TestEvent_ConsumerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	producerCtx, producer := tracer.Start(context.Background(), "producer")
	e := NewAdminMarkPass(testSnapshot(), testActor, "payment", WithTraceContext(producerCtx))
	producer.End()

	_, consumer := tracer.Start(producerCtx, "consumer",
		e.ConsumerSpan(attribute.String("handler", "audit"))...,
	)
	consumer.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	got := spans[1]

	assert.False(t, got.Parent().IsValid(), "handler span must start a new trace")
	assert.NotEqual(t, producer.SpanContext().TraceID(), got.SpanContext().TraceID())
	require.Len(t, got.Links(), 1)
	assert.Equal(t, producer.SpanContext().SpanID(), got.Links()[0].SpanContext.SpanID())
	assert.Equal(t, producer.SpanContext().TraceID(), got.Links()[0].SpanContext.TraceID())

	attrs := attribute.NewSet(got.Attributes()...)
	handler, ok := attrs.Value("handler")
	require.True(t, ok)
	assert.Equal(t, "audit", handler.AsString())
	id, ok := attrs.Value("event.id")
	require.True(t, ok)
	assert.Equal(t, e.ID().String(), id.AsString())
}
