package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

const (
	TopicEmail = "notifications.email"
	TopicChat  = "notifications.chat"

	MetadataEventType = "event_type"
)

var (
	tracer = otel.Tracer("yec/adapters/services/notify")
	logger = otelslog.NewLogger("yec/adapters/services/notify")
)

func Topic(channel notify.Channel) (string, error) {
	switch channel {
	case notify.ChannelEmail:
		return TopicEmail, nil
	case notify.ChannelChat:
		return TopicChat, nil
	default:
		return "", fmt.Errorf("unknown notification channel %q", channel)
	}
}

// Publisher is a notification sink that hands messages to watermill. Actual
// delivery happens in the consumers of TopicEmail and TopicChat.
type Publisher struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	publisher message.Publisher
	enabled   map[notify.Channel]bool
}

type PublisherArgs struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Publisher message.Publisher
	Channels  []notify.Channel
}

func NewPublisher(args PublisherArgs) *Publisher {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	enabled := make(map[notify.Channel]bool, len(args.Channels))
	for _, c := range args.Channels {
		if c.Valid() {
			enabled[c] = true
		}
	}

	return &Publisher{
		tracer:    args.Tracer,
		logger:    args.Logger,
		publisher: args.Publisher,
		enabled:   enabled,
	}
}

func (p *Publisher) Configured(channel notify.Channel) bool {
	return p != nil && p.publisher != nil && p.enabled[channel]
}

func (p *Publisher) Deliver(ctx context.Context, channel notify.Channel, recipient string, msg notify.Message) error {
	const op = "notify.Publisher.Deliver"
	ctx, span := p.tracer.Start(ctx, "Publisher.Deliver",
		trace.WithAttributes(
			attribute.String("notification.channel", channel.String()),
			attribute.String("event.id", msg.EventID.String()),
		),
	)
	defer span.End()

	topic, err := Topic(channel)
	if err != nil {
		otelx.RecordSpanError(span, err, "unknown channel")
		return fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(notify.Envelope{Channel: channel, Recipient: recipient, Message: msg})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to marshal envelope")
		return fmt.Errorf("%s: %w", op, err)
	}

	wm := message.NewMessage(watermill.NewUUID(), payload)
	wm.SetContext(ctx)
	wm.Metadata.Set(MetadataEventType, msg.EventType)
	middleware.SetCorrelationID(msg.CorrelationID, wm)
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(wm.Metadata))

	if err := p.publisher.Publish(topic, wm); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish notification")
		return fmt.Errorf("%s: publish to %s: %w", op, topic, err)
	}

	p.logger.DebugContext(ctx, "notification queued",
		slog.String("topic", topic),
		slog.String("message.id", wm.UUID),
		slog.String("event.id", msg.EventID.String()),
	)
	return nil
}
