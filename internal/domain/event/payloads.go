package event

import (
	"strings"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/validationx"
)

// Payload is the type-specific body of an Event. The set of implementations
// is closed to this package.
type Payload interface {
	EventType() Type
	Validate() error
	isPayload()
}

var (
	ErrEmailMissingAt  = validation.NewError("validation_email_at", "must contain an @ character")
	ErrCountMismatch   = validation.NewError("validation_count_mismatch", "must equal the number of listed registrations")
	ErrNestedRetry     = validation.NewError("validation_nested_retry", "cannot retry a retry request")
	ErrPayloadMismatch = validation.NewError("validation_payload_mismatch", "payload does not match event type")
	ErrUnknownType     = validation.NewError("validation_unknown_type", "unknown event type")
)

var (
	dimensionRule = validation.In(review.Payment, review.Profile, review.TCC)
	actorRoleRule = validation.In(role.User, role.Admin, role.System)
	containsAt    = validation.By(func(value any) error {
		s, _ := value.(string)
		if !strings.Contains(s, "@") {
			return ErrEmailMissingAt
		}
		return nil
	})
)

// RegistrationSnapshot is the denormalized copy of a registration carried by
// payloads. Handlers must treat it as possibly stale.
type RegistrationSnapshot struct {
	ID             int64            `json:"id"`
	RegistrationID string           `json:"registration_id"`
	Status         review.Status    `json:"status"`
	Checklist      review.Checklist `json:"review_checklist"`
	UpdateReason   string           `json:"update_reason,omitempty"`
	Submitted      bool             `json:"submitted"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	FirstName      string           `json:"first_name,omitempty"`
	LastName       string           `json:"last_name,omitempty"`
}

func (s RegistrationSnapshot) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.RegistrationID, validation.Required),
	)
}

type SubmissionCreated struct {
	Registration RegistrationSnapshot `json:"registration"`
}

func (SubmissionCreated) EventType() Type { return TypeSubmissionCreated }
func (SubmissionCreated) isPayload()      {}

func (p SubmissionCreated) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
	)
}

type BatchUpserted struct {
	Registrations []RegistrationSnapshot `json:"registrations"`
	ActorEmail    string                 `json:"actor_email"`
	UpdatedCount  int                    `json:"updated_count"`
}

func (BatchUpserted) EventType() Type { return TypeBatchUpserted }
func (BatchUpserted) isPayload()      {}

func (p BatchUpserted) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registrations, validation.Required),
		validation.Field(&p.ActorEmail, validation.Required),
		validation.Field(&p.UpdatedCount, validation.Min(0)),
	)
}

type AdminRequestUpdate struct {
	Registration RegistrationSnapshot `json:"registration"`
	ActorEmail   string               `json:"actor_email"`
	Dimension    review.Dimension     `json:"dimension"`
	Reason       string               `json:"reason,omitempty"`
}

func (AdminRequestUpdate) EventType() Type { return TypeAdminRequestUpdate }
func (AdminRequestUpdate) isPayload()      {}

func (p AdminRequestUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.ActorEmail, validation.Required),
		validation.Field(&p.Dimension, validation.Required, dimensionRule),
	)
}

type AdminMarkPass struct {
	Registration RegistrationSnapshot `json:"registration"`
	ActorEmail   string               `json:"actor_email"`
	Dimension    review.Dimension     `json:"dimension"`
}

func (AdminMarkPass) EventType() Type { return TypeAdminMarkPass }
func (AdminMarkPass) isPayload()      {}

func (p AdminMarkPass) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.ActorEmail, validation.Required),
		validation.Field(&p.Dimension, validation.Required, dimensionRule),
	)
}

type AdminApproved struct {
	Registration RegistrationSnapshot `json:"registration"`
	ActorEmail   string               `json:"actor_email"`
}

func (AdminApproved) EventType() Type { return TypeAdminApproved }
func (AdminApproved) isPayload()      {}

func (p AdminApproved) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.ActorEmail, validation.Required),
	)
}

type AdminRejected struct {
	Registration RegistrationSnapshot `json:"registration"`
	ActorEmail   string               `json:"actor_email"`
	Reason       string               `json:"reason,omitempty"`
}

func (AdminRejected) EventType() Type { return TypeAdminRejected }
func (AdminRejected) isPayload()      {}

func (p AdminRejected) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.ActorEmail, validation.Required),
	)
}

type DocumentReuploaded struct {
	Registration RegistrationSnapshot `json:"registration"`
	DocumentType string               `json:"document_type"`
}

func (DocumentReuploaded) EventType() Type { return TypeDocumentReuploaded }
func (DocumentReuploaded) isPayload()      {}

func (p DocumentReuploaded) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.DocumentType, validation.Required),
	)
}

type StatusChanged struct {
	RegistrationID string                `json:"registration_id,omitempty"`
	Before         review.Status         `json:"before"`
	After          review.Status         `json:"after"`
	ActorRole      role.Actor            `json:"actor_role"`
	ActorEmail     string                `json:"actor_email,omitempty"`
	Reason         string                `json:"reason,omitempty"`
	Registration   *RegistrationSnapshot `json:"registration,omitempty"`
}

func (StatusChanged) EventType() Type { return TypeStatusChanged }
func (StatusChanged) isPayload()      {}

func (p StatusChanged) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Before, validation.Required),
		validation.Field(&p.After, validation.Required),
		validation.Field(&p.ActorRole, validation.Required, actorRoleRule),
	)
}

type LoginSubmitted struct {
	Email string `json:"email"`
}

func (LoginSubmitted) EventType() Type { return TypeLoginSubmitted }
func (LoginSubmitted) isPayload()      {}

func (p LoginSubmitted) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, containsAt),
	)
}

type LoginSucceeded struct {
	Email  string `json:"email"`
	UserID string `json:"user_id,omitempty"`
}

func (LoginSucceeded) EventType() Type { return TypeLoginSucceeded }
func (LoginSucceeded) isPayload()      {}

func (p LoginSucceeded) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, containsAt),
	)
}

type ReviewTrackUpdated struct {
	Registration RegistrationSnapshot   `json:"registration"`
	ActorEmail   string                 `json:"actor_email"`
	Dimension    review.Dimension       `json:"dimension"`
	To           review.DimensionStatus `json:"to"`
	Notes        string                 `json:"notes,omitempty"`
}

func (ReviewTrackUpdated) EventType() Type { return TypeReviewTrackUpdated }
func (ReviewTrackUpdated) isPayload()      {}

func (p ReviewTrackUpdated) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Registration),
		validation.Field(&p.ActorEmail, validation.Required),
		validation.Field(&p.Dimension, validation.Required, dimensionRule),
		validation.Field(&p.To, validation.Required, validation.In(
			review.DimensionNeedsUpdate, review.DimensionPassed, review.DimensionRejected,
		)),
	)
}

type AutoRejectSweepCompleted struct {
	ActorRole       role.Actor `json:"actor_role"`
	RejectedIDs     []string   `json:"rejected_ids"`
	RejectedCount   int        `json:"rejected_count"`
	Reason          string     `json:"reason,omitempty"`
	DeadlineElapsed bool       `json:"deadline_elapsed"`
}

func (AutoRejectSweepCompleted) EventType() Type { return TypeAutoRejectSweepCompleted }
func (AutoRejectSweepCompleted) isPayload()      {}

func (p AutoRejectSweepCompleted) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ActorRole, validation.Required, validation.In(role.System)),
		validation.Field(&p.RejectedIDs, validation.Each(validation.Required)),
		validation.Field(&p.RejectedCount, validation.By(func(value any) error {
			if n, _ := value.(int); n != len(p.RejectedIDs) {
				return ErrCountMismatch
			}
			return nil
		})),
	)
}

// NotificationRetryRequested asks the notification concern alone to resend
// what it sent (or failed to send) for an earlier event.
type NotificationRetryRequested struct {
	OriginalID   uuid.UUID `json:"original_id"`
	OriginalType Type      `json:"original_type"`
	Original     Payload   `json:"original"`
}

func (NotificationRetryRequested) EventType() Type { return TypeNotificationRetryRequested }
func (NotificationRetryRequested) isPayload()      {}

func (p NotificationRetryRequested) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OriginalID, validationx.Required),
		validation.Field(&p.OriginalType, validation.Required, validation.By(func(value any) error {
			t, _ := value.(Type)
			if !t.Valid() {
				return ErrUnknownType
			}
			if t == TypeNotificationRetryRequested {
				return ErrNestedRetry
			}
			return nil
		})),
		validation.Field(&p.Original, validation.Required, validation.By(func(value any) error {
			original, _ := value.(Payload)
			if original == nil {
				return nil
			}
			if original.EventType() != p.OriginalType {
				return ErrPayloadMismatch
			}
			return original.Validate()
		})),
	)
}
