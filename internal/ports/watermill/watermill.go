package watermill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	notifyadapter "gitlab.com/yecreg/yec-backend/internal/adapters/services/notify"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("yec/ports/watermill")
	logger = otelslog.NewLogger("yec/ports/watermill")
)

// Deliverer performs the actual delivery of one notification.
type Deliverer interface {
	Send(ctx context.Context, env notify.Envelope) error
}

type Deliverers struct {
	Email Deliverer
	Chat  Deliverer
}

type Port struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
}

type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
}

func NewPort(router *message.Router, subscriber message.Subscriber, wmlogger watermill.LoggerAdapter, retry RetryConfig) *Port {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialInterval == 0 {
		retry.InitialInterval = 100 * time.Millisecond
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      retry.MaxRetries,
			InitialInterval: retry.InitialInterval,
			Multiplier:      2,
			Logger:          wmlogger,
		}.Middleware,
		middleware.Recoverer,
	)

	return &Port{
		router:     router,
		subscriber: subscriber,
		logger:     logger,
	}
}

// Register adds one consumer per configured deliverer.
func (p *Port) Register(deliverers Deliverers) error {
	if deliverers.Email != nil {
		p.router.AddNoPublisherHandler("DeliverEmail", notifyadapter.TopicEmail, p.subscriber, p.deliver(notify.ChannelEmail, deliverers.Email))
	}
	if deliverers.Chat != nil {
		p.router.AddNoPublisherHandler("DeliverChat", notifyadapter.TopicChat, p.subscriber, p.deliver(notify.ChannelChat, deliverers.Chat))
	}

	return nil
}

func (p *Port) Run(ctx context.Context) error {
	if err := p.router.Run(ctx); err != nil {
		return fmt.Errorf("watermill router stopped: %w", err)
	}
	return nil
}

func (p *Port) Running() chan struct{} {
	return p.router.Running()
}

func (p *Port) deliver(channel notify.Channel, d Deliverer) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := otel.GetTextMapPropagator().Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))
		ctx, span := tracer.Start(ctx, "Port.Deliver",
			trace.WithAttributes(
				attribute.String("notification.channel", channel.String()),
				attribute.String("message.id", msg.UUID),
			),
		)
		defer span.End()

		var env notify.Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			// A malformed message will never succeed; drop it.
			otelx.RecordSpanError(span, err, "malformed notification")
			p.logger.ErrorContext(ctx, "dropping malformed notification",
				slog.String("message.id", msg.UUID),
				slog.Any("error", err),
			)
			return nil
		}

		if err := d.Send(ctx, env); err != nil {
			otelx.RecordSpanError(span, err, "failed to deliver notification")
			p.logger.WarnContext(ctx, "notification delivery failed",
				slog.String("channel", channel.String()),
				slog.String("recipient", logging.RedactEmail(env.Recipient)),
				slog.String("event.id", env.Message.EventID.String()),
				slog.Any("error", err),
			)
			return err
		}

		return nil
	}
}
