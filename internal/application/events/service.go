package events

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("yec/application/events")
	logger = otelslog.NewLogger("yec/application/events")
)

// ErrInvalidEvent is returned, before anything is dispatched, for an event
// that fails validation. The validation details are wrapped alongside it.
var ErrInvalidEvent = &errorx.I18nError{
	MessageKey: "validation_failed",
	Code:       errorx.CodeValidationFailed,
	HTTPCode:   http.StatusBadRequest,
}

type Bus interface {
	Emit(ctx context.Context, e *event.Event) []eventbus.Result
}

// Service builds events and emits them in one call. It is the only entry
// point API code should use to publish events.
type Service struct {
	tracer trace.Tracer
	logger *slog.Logger
	bus    Bus
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Bus    Bus
}

func NewService(args Args) *Service {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &Service{
		tracer: args.Tracer,
		logger: args.Logger,
		bus:    args.Bus,
	}
}

// Emit validates e and dispatches it. Handler failures are reported in the
// results; the only error is ErrInvalidEvent.
func (s *Service) Emit(ctx context.Context, e *event.Event) ([]eventbus.Result, error) {
	const op = "events.Service.Emit"

	ctx, span := s.tracer.Start(ctx, "Service.Emit", trace.WithAttributes(e.SpanAttributes()...))
	defer span.End()

	if err := event.ValidationError(e); err != nil {
		otelx.RecordSpanError(span, err, "invalid event")
		s.logger.With(e.LogAttrs()...).WarnContext(ctx, "refusing to emit invalid event", slog.Any("error", err))
		return []eventbus.Result{}, errorx.Wrap(fmt.Errorf("%w: %w", ErrInvalidEvent, err), op)
	}

	results := s.bus.Emit(ctx, e)
	if failed := eventbus.Failed(results); len(failed) > 0 {
		span.SetAttributes(attribute.Int("event.failed_handlers", len(failed)))
	}

	return results, nil
}

func (s *Service) build(ctx context.Context, p event.Payload, opts []event.Option) *event.Event {
	return event.New(p, append([]event.Option{event.WithTraceContext(ctx)}, opts...)...)
}

func (s *Service) SubmissionCreated(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.SubmissionCreated{Registration: reg}, opts))
}

func (s *Service) BatchUpserted(
	ctx context.Context,
	regs []event.RegistrationSnapshot,
	actorEmail string,
	updatedCount int,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.BatchUpserted{
		Registrations: regs,
		ActorEmail:    actorEmail,
		UpdatedCount:  updatedCount,
	}, opts))
}

func (s *Service) AdminRequestUpdate(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	actorEmail string,
	dim review.Dimension,
	reason string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.AdminRequestUpdate{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
		Reason:       reason,
	}, opts))
}

func (s *Service) AdminMarkPass(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	actorEmail string,
	dim review.Dimension,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.AdminMarkPass{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
	}, opts))
}

func (s *Service) AdminApproved(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	actorEmail string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.AdminApproved{Registration: reg, ActorEmail: actorEmail}, opts))
}

func (s *Service) AdminRejected(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	actorEmail, reason string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.AdminRejected{
		Registration: reg,
		ActorEmail:   actorEmail,
		Reason:       reason,
	}, opts))
}

func (s *Service) DocumentReuploaded(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	documentType string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.DocumentReuploaded{Registration: reg, DocumentType: documentType}, opts))
}

func (s *Service) StatusChanged(
	ctx context.Context,
	p event.StatusChanged,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, p, opts))
}

func (s *Service) LoginSubmitted(ctx context.Context, email string, opts ...event.Option) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.LoginSubmitted{Email: email}, opts))
}

func (s *Service) LoginSucceeded(
	ctx context.Context,
	email, userID string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.LoginSucceeded{Email: email, UserID: userID}, opts))
}

func (s *Service) ReviewTrackUpdated(
	ctx context.Context,
	reg event.RegistrationSnapshot,
	actorEmail string,
	dim review.Dimension,
	to review.DimensionStatus,
	notes string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, s.build(ctx, event.ReviewTrackUpdated{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
		To:           to,
		Notes:        notes,
	}, opts))
}

func (s *Service) AutoRejectSweepCompleted(
	ctx context.Context,
	rejectedIDs []string,
	reason string,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, event.NewAutoRejectSweepCompleted(rejectedIDs, reason,
		append([]event.Option{event.WithTraceContext(ctx)}, opts...)...))
}

// RetryNotification asks the notification handler alone to resend what it
// sent for original. Status and audit handlers do not see the retry.
func (s *Service) RetryNotification(
	ctx context.Context,
	original *event.Event,
	opts ...event.Option,
) ([]eventbus.Result, error) {
	return s.Emit(ctx, event.NewNotificationRetryRequested(original,
		append([]event.Option{event.WithTraceContext(ctx)}, opts...)...))
}
