package notificationevent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

// Handle renders and delivers the notification for e. It uses the snapshot
// carried by the event and never reads the registration store. A retry
// request re-sends the notification of the wrapped payload.
func (h *NotificationHandler) Handle(ctx context.Context, e *event.Event) error {
	if e == nil {
		return nil
	}
	const op = "notificationevent.NotificationHandler.Handle"

	payload := e.Payload()
	sourceID, sourceType := e.ID(), e.Type()
	if retry, ok := payload.(event.NotificationRetryRequested); ok {
		payload = retry.Original
		sourceID, sourceType = retry.OriginalID, retry.OriginalType
	}

	ctx, span := h.tracer.Start(ctx, "NotificationHandler.Handle",
		e.ConsumerSpan(attribute.String("notification.source_type", sourceType.String()))...,
	)
	defer span.End()

	l := h.logger.With(e.LogAttrs()...)

	n, ok := noticeFor(payload)
	if !ok {
		l.DebugContext(ctx, "event does not produce a notification")
		return nil
	}
	l = l.With(
		slog.String("registration.id", n.registration.RegistrationID),
		slog.String("template", n.template),
	)

	subject, body, err := h.render(n)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to render notification")
		l.ErrorContext(ctx, "failed to render notification", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	msg := notify.Message{
		EventID:        sourceID,
		EventType:      sourceType.String(),
		CorrelationID:  e.CorrelationOrID(),
		RegistrationID: n.registration.RegistrationID,
		Dimension:      n.dimension,
		Subject:        subject,
		Body:           body,
	}

	var errs error
	for _, channel := range n.channels {
		errs = errors.Join(errs, h.deliver(ctx, l, channel, h.recipient(channel, n), msg))
	}
	if errs != nil {
		otelx.RecordSpanError(span, errs, "failed to deliver notification")
		return errorx.Wrap(errs, op)
	}

	return nil
}

func (h *NotificationHandler) recipient(channel notify.Channel, n notice) string {
	if channel == notify.ChannelChat {
		return h.adminChatTarget
	}
	return n.registration.Email
}

func (h *NotificationHandler) deliver(
	ctx context.Context,
	l *slog.Logger,
	channel notify.Channel,
	recipient string,
	msg notify.Message,
) error {
	l = l.With(slog.String("channel", channel.String()))

	if h.sink == nil || !h.sink.Configured(channel) {
		l.WarnContext(ctx, "notification channel is not configured, skipping")
		return nil
	}
	if recipient == "" {
		l.WarnContext(ctx, "notification has no recipient, skipping")
		return nil
	}

	if err := h.sink.Deliver(ctx, channel, recipient, msg); err != nil {
		l.ErrorContext(ctx, "failed to deliver notification",
			slog.String("recipient", redactRecipient(channel, recipient)),
			slog.Any("error", err),
		)
		return fmt.Errorf("deliver %s notification for event %s: %w", channel, msg.EventID, err)
	}

	l.InfoContext(ctx, "notification delivered",
		slog.String("recipient", redactRecipient(channel, recipient)),
	)
	return nil
}

func redactRecipient(channel notify.Channel, recipient string) string {
	if channel == notify.ChannelEmail {
		return logging.RedactEmail(recipient)
	}
	return recipient
}
