package auditevent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

// Handle writes one audit entry for e. A sink failure is logged and reported
// to the bus; it never affects other handlers.
func (h *AuditHandler) Handle(ctx context.Context, e *event.Event) error {
	if e == nil {
		return nil
	}
	const op = "auditevent.AuditHandler.Handle"

	ctx, span := h.tracer.Start(ctx, "AuditHandler.Handle", e.ConsumerSpan()...)
	defer span.End()

	entry := BuildEntry(e)
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = h.now()
	}
	span.SetAttributes(
		attribute.String("audit.resource", entry.Resource),
		attribute.String("audit.result", entry.Result.String()),
	)

	if err := h.sink.Record(ctx, entry); err != nil {
		otelx.RecordSpanError(span, err, "failed to record audit entry")
		h.logger.With(e.LogAttrs()...).ErrorContext(ctx, "failed to record audit entry", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	return nil
}
