package auditevent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
	"gitlab.com/yecreg/yec-backend/internal/domain/event"
)

const HandlerName = "audit"

var (
	tracer = otel.Tracer("yec/application/audit/event")
	logger = otelslog.NewLogger("yec/application/audit/event")
)

type Sink interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// SubscribedTypes is every event type except notification retries, which
// must not replay audit side effects.
func SubscribedTypes() []event.Type {
	types := make([]event.Type, 0, len(event.Types()))
	for _, t := range event.Types() {
		if t != event.TypeNotificationRetryRequested {
			types = append(types, t)
		}
	}
	return types
}

type AuditHandler struct {
	tracer trace.Tracer
	logger *slog.Logger
	sink   Sink
	now    func() time.Time
}

type AuditHandlerArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Sink   Sink
}

func NewAuditHandler(args AuditHandlerArgs) *AuditHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Sink == nil {
		args.Sink = NewLogSink(args.Logger)
	}

	return &AuditHandler{
		tracer: args.Tracer,
		logger: args.Logger,
		sink:   args.Sink,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *AuditHandler) Name() string {
	return HandlerName
}
