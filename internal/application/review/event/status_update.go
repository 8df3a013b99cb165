package reviewevent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
)

type transition func(reg *registration.Registration) registration.Outcome

// Handle re-reads the registration named by the event, applies the matching
// transition and persists the result. Refused transitions are logged and
// reported as success.
func (h *StatusUpdateHandler) Handle(ctx context.Context, e *event.Event) error {
	if e == nil {
		return nil
	}
	const op = "reviewevent.StatusUpdateHandler.Handle"

	l := h.logger.With(e.LogAttrs()...)
	ctx, span := h.tracer.Start(ctx, "StatusUpdateHandler.Handle", e.ConsumerSpan()...)
	defer span.End()

	var err error
	switch p := e.Payload().(type) {
	case event.SubmissionCreated:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.Submit(registration.Actor{Role: role.User, Email: p.Registration.Email})
		})
	case event.DocumentReuploaded:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.Submit(registration.Actor{Role: role.User, Email: p.Registration.Email})
		})
	case event.AdminRequestUpdate:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.RequestUpdate(registration.AdminActor(p.ActorEmail), p.Dimension, p.Reason)
		})
	case event.AdminMarkPass:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.MarkPass(registration.AdminActor(p.ActorEmail), p.Dimension)
		})
	case event.ReviewTrackUpdated:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.Track(registration.AdminActor(p.ActorEmail), p.Dimension, p.To, p.Notes)
		})
	case event.AdminApproved:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.Approve(registration.AdminActor(p.ActorEmail), h.approvalPolicy)
		})
	case event.AdminRejected:
		err = h.applyOne(ctx, l, e, p.Registration.RegistrationID, func(reg *registration.Registration) registration.Outcome {
			return reg.Reject(registration.AdminActor(p.ActorEmail), p.Reason)
		})
	case event.BatchUpserted:
		err = h.applyBatch(ctx, l, e, p)
	case event.AutoRejectSweepCompleted:
		err = h.applySweep(ctx, l, e, p)
	default:
		l.DebugContext(ctx, "event does not affect registration status")
		return nil
	}

	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update registration status")
		l.ErrorContext(ctx, "failed to update registration status", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	return nil
}

func (h *StatusUpdateHandler) applyOne(
	ctx context.Context,
	l *slog.Logger,
	e *event.Event,
	registrationID string,
	apply transition,
) error {
	reg, err := h.store.Get(ctx, registrationID)
	if err != nil {
		return fmt.Errorf("get registration %s: %w", registrationID, err)
	}

	return h.persist(ctx, l, e, reg, apply)
}

func (h *StatusUpdateHandler) persist(
	ctx context.Context,
	l *slog.Logger,
	e *event.Event,
	reg *registration.Registration,
	apply transition,
) error {
	l = l.With(slog.String("registration.id", reg.RegistrationID()))

	out := apply(reg)
	if out.Refused() {
		l.InfoContext(ctx, "transition refused, nothing to persist",
			slog.String("status", out.Before.String()),
			slog.String("dimension", out.Dimension.String()),
			slog.String("refusal", out.Refusal.Error()),
		)
		return nil
	}
	if out.Bypassed {
		l.WarnContext(ctx, "registration approved without every dimension passed",
			slog.Any("checklist", reg.Checklist()),
		)
	}

	if _, err := h.store.UpdateStatusAndChecklist(ctx, reg.RegistrationID(), reg.ReviewUpdate()); err != nil {
		return fmt.Errorf("update registration %s: %w", reg.RegistrationID(), err)
	}
	if out.StatusChanged() {
		l.InfoContext(ctx, "registration status changed",
			slog.String("before", out.Before.String()),
			slog.String("after", out.After.String()),
			slog.Bool("auto_approved", out.AutoApproved),
		)
	}

	h.publishRecorded(ctx, l, e, reg)
	return nil
}

// publishRecorded emits the status changes recorded by the transition under
// the correlation of the triggering event.
func (h *StatusUpdateHandler) publishRecorded(ctx context.Context, l *slog.Logger, trigger *event.Event, reg *registration.Registration) {
	defer reg.MarkEventsAsCommitted()
	if h.emitter == nil {
		return
	}

	for _, recorded := range reg.GetUncommittedEvents() {
		e := event.New(recorded.Payload(),
			event.WithCorrelationID(trigger.CorrelationOrID()),
			event.WithMetadata("caused_by", trigger.ID().String()),
			event.WithTraceContext(ctx),
		)
		results := h.emitter.Emit(ctx, e)
		for _, r := range eventbus.Failed(results) {
			l.WarnContext(ctx, "status change consumer failed",
				slog.String("handler", r.Handler),
				slog.String("status_event.id", e.ID().String()),
				slog.Any("error", r.Err),
			)
		}
	}
}

func (h *StatusUpdateHandler) applyBatch(ctx context.Context, l *slog.Logger, e *event.Event, p event.BatchUpserted) error {
	snapshots := make(map[string]event.RegistrationSnapshot, len(p.Registrations))
	ids := make([]string, 0, len(p.Registrations))
	for _, s := range p.Registrations {
		if _, dup := snapshots[s.RegistrationID]; !dup {
			ids = append(ids, s.RegistrationID)
		}
		snapshots[s.RegistrationID] = s
	}

	regs, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list batch registrations: %w", err)
	}
	if len(regs) != len(ids) {
		l.WarnContext(ctx, "batch references unknown registrations",
			slog.Int("requested", len(ids)),
			slog.Int("found", len(regs)),
		)
	}

	actor := registration.AdminActor(p.ActorEmail)
	var errs error
	for _, reg := range regs {
		s := snapshots[reg.RegistrationID()]
		errs = errors.Join(errs, h.persist(ctx, l, e, reg, func(reg *registration.Registration) registration.Outcome {
			return reg.ApplyChecklist(actor, s.Checklist, s.Submitted)
		}))
	}

	return errs
}

func (h *StatusUpdateHandler) applySweep(
	ctx context.Context,
	l *slog.Logger,
	e *event.Event,
	p event.AutoRejectSweepCompleted,
) error {
	if len(p.RejectedIDs) == 0 {
		return nil
	}

	regs, err := h.store.ListByIDs(ctx, p.RejectedIDs)
	if err != nil {
		return fmt.Errorf("list swept registrations: %w", err)
	}

	var errs error
	for _, reg := range regs {
		errs = errors.Join(errs, h.persist(ctx, l, e, reg, func(reg *registration.Registration) registration.Outcome {
			return reg.Reject(registration.SystemActor, p.Reason)
		}))
	}

	return errs
}
