package postgres

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type RegistrationDTO struct {
	ID             int64
	RegistrationID string
	Status         string
	Checklist      review.Checklist
	UpdateReason   string
	Submitted      bool
	Email          string
	Phone          string
	FirstName      string
	LastName       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (d *RegistrationDTO) ScanArgs() []any {
	return []any{
		&d.ID, &d.RegistrationID, &d.Status, &d.Checklist, &d.UpdateReason, &d.Submitted,
		&d.Email, &d.Phone, &d.FirstName, &d.LastName, &d.CreatedAt, &d.UpdatedAt,
	}
}

const registrationColumns = `id, registration_id, status, review_checklist, update_reason, submitted,
	email, phone, first_name, last_name, created_at, updated_at`

func DomainToRegistrationDTO(r *registration.Registration) RegistrationDTO {
	return RegistrationDTO{
		ID:             r.ID(),
		RegistrationID: r.RegistrationID(),
		Status:         r.Status().String(),
		Checklist:      r.Checklist(),
		UpdateReason:   r.UpdateReason(),
		Submitted:      r.Submitted(),
		Email:          r.Email(),
		Phone:          r.Phone(),
		FirstName:      r.FirstName(),
		LastName:       r.LastName(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

func RegistrationToDomain(dto RegistrationDTO) *registration.Registration {
	return registration.Rehydrate(registration.RehydrateArgs{
		ID:             dto.ID,
		RegistrationID: dto.RegistrationID,
		Status:         review.Status(dto.Status),
		Checklist:      dto.Checklist,
		UpdateReason:   dto.UpdateReason,
		Submitted:      dto.Submitted,
		Email:          dto.Email,
		Phone:          dto.Phone,
		FirstName:      dto.FirstName,
		LastName:       dto.LastName,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
	})
}

type AuditEntryDTO struct {
	EventID       uuid.UUID
	Action        string
	Resource      string
	ResourceID    string
	ActorRole     string
	ActorID       string
	Result        string
	CorrelationID string
	Reason        string
	Meta          map[string]any
	OccurredAt    time.Time
}

func (d *AuditEntryDTO) ScanArgs() []any {
	return []any{
		&d.EventID, &d.Action, &d.Resource, &d.ResourceID, &d.ActorRole, &d.ActorID,
		&d.Result, &d.CorrelationID, &d.Reason, &d.Meta, &d.OccurredAt,
	}
}

const auditColumns = `event_id, action, resource, resource_id, actor_role, actor_id,
	result, correlation_id, reason, meta, occurred_at`

func DomainToAuditEntryDTO(e audit.Entry) AuditEntryDTO {
	meta := e.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	return AuditEntryDTO{
		EventID:       e.EventID,
		Action:        e.Action,
		Resource:      e.Resource,
		ResourceID:    e.ResourceID,
		ActorRole:     e.ActorRole.String(),
		ActorID:       e.ActorID,
		Result:        e.Result.String(),
		CorrelationID: e.CorrelationID,
		Reason:        e.Reason,
		Meta:          meta,
		OccurredAt:    e.OccurredAt,
	}
}

func AuditEntryToDomain(dto AuditEntryDTO) audit.Entry {
	return audit.Entry{
		EventID:       dto.EventID,
		Action:        dto.Action,
		Resource:      dto.Resource,
		ResourceID:    dto.ResourceID,
		ActorRole:     role.Actor(dto.ActorRole),
		ActorID:       dto.ActorID,
		Result:        audit.Result(dto.Result),
		CorrelationID: dto.CorrelationID,
		Reason:        dto.Reason,
		Meta:          dto.Meta,
		OccurredAt:    dto.OccurredAt,
	}
}
