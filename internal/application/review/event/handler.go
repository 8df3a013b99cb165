package reviewevent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
)

const HandlerName = "status"

var (
	tracer = otel.Tracer("yec/application/review/event")
	logger = otelslog.NewLogger("yec/application/review/event")
)

// RegistrationStore is the part of the registration store the review flow
// needs. Implementations report a missing registration with errorx.NewNotFound.
type RegistrationStore interface {
	Get(ctx context.Context, registrationID string) (*registration.Registration, error)
	UpdateStatusAndChecklist(
		ctx context.Context,
		registrationID string,
		upd registration.ReviewUpdate,
	) (*registration.Registration, error)
	ListByIDs(ctx context.Context, registrationIDs []string) ([]*registration.Registration, error)
}

// Emitter publishes the status changes a transition records.
type Emitter interface {
	Emit(ctx context.Context, e *event.Event) []eventbus.Result
}

// SubscribedTypes are the event types the status handler acts on.
func SubscribedTypes() []event.Type {
	return append(event.ReviewableTypes(),
		event.TypeSubmissionCreated,
		event.TypeBatchUpserted,
		event.TypeReviewTrackUpdated,
		event.TypeAutoRejectSweepCompleted,
	)
}

type StatusUpdateHandler struct {
	tracer         trace.Tracer
	logger         *slog.Logger
	store          RegistrationStore
	emitter        Emitter
	approvalPolicy registration.ApprovalPolicy
}

type StatusUpdateHandlerArgs struct {
	Tracer         trace.Tracer
	Logger         *slog.Logger
	Store          RegistrationStore
	Emitter        Emitter
	ApprovalPolicy registration.ApprovalPolicy
}

func NewStatusUpdateHandler(args StatusUpdateHandlerArgs) *StatusUpdateHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &StatusUpdateHandler{
		tracer:         args.Tracer,
		logger:         args.Logger,
		store:          args.Store,
		emitter:        args.Emitter,
		approvalPolicy: args.ApprovalPolicy,
	}
}

// SetEmitter breaks the construction cycle between the bus and this handler.
func (h *StatusUpdateHandler) SetEmitter(emitter Emitter) {
	h.emitter = emitter
}

func (h *StatusUpdateHandler) Name() string {
	return HandlerName
}
