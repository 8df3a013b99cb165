package event

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// Otel carries the producer's trace context and baggage inside the envelope.
type Otel struct {
	Carrier map[string]string `json:"otel_carrier,omitempty"`
}

func (o *Otel) Propagate(ctx context.Context) {
	if o.Carrier == nil {
		o.Carrier = make(map[string]string)
	}
	propagator.Inject(ctx, propagation.MapCarrier(o.Carrier))
}

// Extract returns a background context holding the carried span context, or
// a bare background context when nothing was propagated.
func (o *Otel) Extract() context.Context {
	if len(o.Carrier) == 0 {
		return context.Background()
	}
	return propagator.Extract(context.Background(), propagation.MapCarrier(o.Carrier))
}

// SpanAttributes identifies e on a span.
func (e *Event) SpanAttributes() []attribute.KeyValue {
	if e == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("event.id", e.ID().String()),
		attribute.String("event.type", e.Type().String()),
		attribute.String("event.correlation_id", e.CorrelationOrID()),
	}
}

// LogAttrs identifies e in log records, ready for slog.Logger.With.
func (e *Event) LogAttrs() []any {
	if e == nil {
		return nil
	}
	return []any{
		slog.String("event.id", e.ID().String()),
		slog.String("event.type", e.Type().String()),
		slog.String("correlation.id", e.CorrelationOrID()),
	}
}

// ConsumerSpan returns the start options of a handler span: a new root,
// linked to the span that produced e.
func (e *Event) ConsumerSpan(extra ...attribute.KeyValue) []trace.SpanStartOption {
	return []trace.SpanStartOption{
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(e.Extract())),
		trace.WithAttributes(append(e.SpanAttributes(), extra...)...),
	}
}
