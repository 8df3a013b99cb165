package auditevent

import (
	"encoding/json"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
)

const (
	ResourceRegistration = "registration"
	ResourceBatch        = "registration_batch"
	ResourceSession      = "session"
	ResourceNotification = "notification"
)

// subject is who did what to which resource, as read from a payload.
type subject struct {
	resource   string
	resourceID string
	actorRole  role.Actor
	actorEmail string
	reason     string
}

func subjectOf(p event.Payload) subject {
	switch p := p.(type) {
	case event.SubmissionCreated:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.User, p.Registration.Email, ""}
	case event.DocumentReuploaded:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.User, p.Registration.Email, p.DocumentType}
	case event.AdminRequestUpdate:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.Admin, p.ActorEmail, p.Reason}
	case event.AdminMarkPass:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.Admin, p.ActorEmail, ""}
	case event.AdminApproved:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.Admin, p.ActorEmail, ""}
	case event.AdminRejected:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.Admin, p.ActorEmail, p.Reason}
	case event.ReviewTrackUpdated:
		return subject{ResourceRegistration, p.Registration.RegistrationID, role.Admin, p.ActorEmail, p.Notes}
	case event.StatusChanged:
		return subject{ResourceRegistration, p.RegistrationID, p.ActorRole, p.ActorEmail, p.Reason}
	case event.BatchUpserted:
		return subject{ResourceBatch, "", role.Admin, p.ActorEmail, ""}
	case event.AutoRejectSweepCompleted:
		return subject{ResourceBatch, "", role.System, "", p.Reason}
	case event.LoginSubmitted:
		return subject{ResourceSession, "", role.User, p.Email, ""}
	case event.LoginSucceeded:
		return subject{ResourceSession, p.UserID, role.User, p.Email, ""}
	case event.NotificationRetryRequested:
		return subject{ResourceNotification, p.OriginalID.String(), role.Admin, "", ""}
	default:
		return subject{resource: "unknown", actorRole: role.System}
	}
}

// BuildEntry turns e into an audit entry. Email and phone values never
// appear unmasked in the result.
func BuildEntry(e *event.Event) audit.Entry {
	s := subjectOf(e.Payload())
	if !role.IsActorValid(s.actorRole) {
		s.actorRole = role.System
	}

	entry := audit.Entry{
		EventID:       e.ID(),
		Action:        e.Type().String(),
		Resource:      s.resource,
		ResourceID:    s.resourceID,
		ActorRole:     s.actorRole,
		Result:        audit.ResultSuccess,
		CorrelationID: e.CorrelationOrID(),
		Reason:        s.reason,
		Meta:          payloadMeta(e.Payload()),
		OccurredAt:    e.Timestamp(),
	}
	if s.actorEmail != "" {
		entry.ActorID = logging.RedactEmail(s.actorEmail)
	}
	if err := event.ValidationError(e); err != nil {
		entry.Result = audit.ResultFailure
		entry.Meta["validation_error"] = err.Error()
	}

	return entry
}

// payloadMeta is the JSON form of p with sensitive values masked.
func payloadMeta(p event.Payload) map[string]any {
	meta := map[string]any{}
	if p == nil {
		return meta
	}

	raw, err := json.Marshal(p)
	if err != nil {
		meta["marshal_error"] = err.Error()
		return meta
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		meta["marshal_error"] = err.Error()
		return meta
	}

	if redacted, ok := logging.RedactFields(decoded).(map[string]any); ok {
		return redacted
	}
	return meta
}
