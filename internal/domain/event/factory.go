package event

import (
	"context"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type Option func(*Event)

func WithCorrelationID(id string) Option {
	return func(e *Event) {
		e.header.CorrelationID = id
	}
}

func WithMetadata(key, value string) Option {
	return func(e *Event) {
		if e.header.Metadata == nil {
			e.header.Metadata = make(map[string]string)
		}
		e.header.Metadata[key] = value
	}
}

// WithTraceContext stores the trace context of ctx on the event so handler
// spans can link back to the producer.
func WithTraceContext(ctx context.Context) Option {
	return func(e *Event) {
		if ctx != nil {
			e.otel.Propagate(ctx)
		}
	}
}

// New stamps a fresh header on p. The event type is taken from the payload.
// New never fails; use Validate to check the result.
func New(p Payload, opts ...Option) *Event {
	e := &Event{
		header:  NewEventHeader(),
		payload: p,
	}
	if p != nil {
		e.typ = p.EventType()
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func NewSubmissionCreated(reg RegistrationSnapshot, opts ...Option) *Event {
	return New(SubmissionCreated{Registration: reg}, opts...)
}

func NewBatchUpserted(regs []RegistrationSnapshot, actorEmail string, updatedCount int, opts ...Option) *Event {
	return New(BatchUpserted{
		Registrations: regs,
		ActorEmail:    actorEmail,
		UpdatedCount:  updatedCount,
	}, opts...)
}

func NewAdminRequestUpdate(
	reg RegistrationSnapshot,
	actorEmail string,
	dim review.Dimension,
	reason string,
	opts ...Option,
) *Event {
	return New(AdminRequestUpdate{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
		Reason:       reason,
	}, opts...)
}

func NewAdminMarkPass(reg RegistrationSnapshot, actorEmail string, dim review.Dimension, opts ...Option) *Event {
	return New(AdminMarkPass{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
	}, opts...)
}

func NewAdminApproved(reg RegistrationSnapshot, actorEmail string, opts ...Option) *Event {
	return New(AdminApproved{Registration: reg, ActorEmail: actorEmail}, opts...)
}

func NewAdminRejected(reg RegistrationSnapshot, actorEmail, reason string, opts ...Option) *Event {
	return New(AdminRejected{Registration: reg, ActorEmail: actorEmail, Reason: reason}, opts...)
}

func NewDocumentReuploaded(reg RegistrationSnapshot, documentType string, opts ...Option) *Event {
	return New(DocumentReuploaded{Registration: reg, DocumentType: documentType}, opts...)
}

func NewStatusChanged(p StatusChanged, opts ...Option) *Event {
	return New(p, opts...)
}

func NewLoginSubmitted(email string, opts ...Option) *Event {
	return New(LoginSubmitted{Email: email}, opts...)
}

func NewLoginSucceeded(email, userID string, opts ...Option) *Event {
	return New(LoginSucceeded{Email: email, UserID: userID}, opts...)
}

func NewReviewTrackUpdated(
	reg RegistrationSnapshot,
	actorEmail string,
	dim review.Dimension,
	to review.DimensionStatus,
	notes string,
	opts ...Option,
) *Event {
	return New(ReviewTrackUpdated{
		Registration: reg,
		ActorEmail:   actorEmail,
		Dimension:    dim,
		To:           to,
		Notes:        notes,
	}, opts...)
}

func NewAutoRejectSweepCompleted(rejectedIDs []string, reason string, opts ...Option) *Event {
	return New(AutoRejectSweepCompleted{
		ActorRole:       role.System,
		RejectedIDs:     rejectedIDs,
		RejectedCount:   len(rejectedIDs),
		Reason:          reason,
		DeadlineElapsed: true,
	}, opts...)
}

// NewNotificationRetryRequested wraps original for a notification-only resend.
// The retry keeps the original correlation unless opts override it.
func NewNotificationRetryRequested(original *Event, opts ...Option) *Event {
	p := NotificationRetryRequested{}
	if original != nil {
		p.OriginalID = original.ID()
		p.OriginalType = original.Type()
		p.Original = original.Payload()
		opts = append([]Option{WithCorrelationID(original.CorrelationOrID())}, opts...)
	}

	return New(p, opts...)
}
