package notificationevent

import (
	"context"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	yec "gitlab.com/yecreg/yec-backend"
	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/pkg/i18nx"
)

const HandlerName = "notification"

var (
	tracer = otel.Tracer("yec/application/notification/event")
	logger = otelslog.NewLogger("yec/application/notification/event")
)

// Sink delivers rendered messages. Configured reports whether a channel can
// be used at all.
type Sink interface {
	Configured(channel notify.Channel) bool
	Deliver(ctx context.Context, channel notify.Channel, recipient string, msg notify.Message) error
}

// SubscribedTypes are the event types that may produce a notification.
func SubscribedTypes() []event.Type {
	return append(event.ReviewableTypes(),
		event.TypeStatusChanged,
		event.TypeNotificationRetryRequested,
	)
}

type NotificationHandler struct {
	tracer          trace.Tracer
	logger          *slog.Logger
	sink            Sink
	localizer       *i18n.Localizer
	adminChatTarget string
}

type NotificationHandlerArgs struct {
	Tracer          trace.Tracer
	Logger          *slog.Logger
	Sink            Sink
	Localizer       *i18n.Localizer
	AdminChatTarget string
}

func NewNotificationHandler(args NotificationHandlerArgs) *NotificationHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Localizer == nil {
		bundle, err := i18nx.NewBundle(yec.Locales)
		if err != nil {
			args.Logger.Error("failed to load embedded locales", slog.Any("error", err))
		} else {
			args.Localizer = i18nx.Localizer(bundle, "en")
		}
	}

	return &NotificationHandler{
		tracer:          args.Tracer,
		logger:          args.Logger,
		sink:            args.Sink,
		localizer:       args.Localizer,
		adminChatTarget: args.AdminChatTarget,
	}
}

func (h *NotificationHandler) Name() string {
	return HandlerName
}
