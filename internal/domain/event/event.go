package event

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Type identifies a domain occurrence. The set is closed: every value is
// listed in Types.
type Type string

const (
	TypeSubmissionCreated          Type = "submission.created"
	TypeBatchUpserted              Type = "registration.batch_upserted"
	TypeAdminRequestUpdate         Type = "admin.request_update"
	TypeAdminMarkPass              Type = "admin.mark_pass"
	TypeAdminApproved              Type = "admin.approved"
	TypeAdminRejected              Type = "admin.rejected"
	TypeDocumentReuploaded         Type = "document.reuploaded"
	TypeStatusChanged              Type = "registration.status_changed"
	TypeLoginSubmitted             Type = "auth.login_submitted"
	TypeLoginSucceeded             Type = "auth.login_succeeded"
	TypeReviewTrackUpdated         Type = "admin.review_track_updated"
	TypeAutoRejectSweepCompleted   Type = "admin.auto_reject_sweep_completed"
	TypeNotificationRetryRequested Type = "notification.retry_requested"
)

var types = []Type{
	TypeSubmissionCreated,
	TypeBatchUpserted,
	TypeAdminRequestUpdate,
	TypeAdminMarkPass,
	TypeAdminApproved,
	TypeAdminRejected,
	TypeDocumentReuploaded,
	TypeStatusChanged,
	TypeLoginSubmitted,
	TypeLoginSucceeded,
	TypeReviewTrackUpdated,
	TypeAutoRejectSweepCompleted,
	TypeNotificationRetryRequested,
}

// Types returns every known event type.
func Types() []Type {
	return append([]Type(nil), types...)
}

// ReviewableTypes are the admin review events every side-effect concern
// (status, notification, audit) subscribes to.
func ReviewableTypes() []Type {
	return []Type{
		TypeAdminRequestUpdate,
		TypeAdminMarkPass,
		TypeAdminApproved,
		TypeAdminRejected,
		TypeDocumentReuploaded,
	}
}

func (t Type) String() string {
	return string(t)
}

func (t Type) Valid() bool {
	for _, known := range types {
		if t == known {
			return true
		}
	}
	return false
}

type Header struct {
	ID            uuid.UUID         `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func NewEventHeader() Header {
	return Header{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
	}
}

// Event is the envelope dispatched on the bus. It is immutable once created;
// use New (or one of the typed constructors) to build one.
type Event struct {
	header  Header
	otel    Otel
	typ     Type
	payload Payload
}

func (e *Event) ID() uuid.UUID {
	if e == nil {
		return uuid.Nil
	}
	return e.header.ID
}

func (e *Event) Type() Type {
	if e == nil {
		return ""
	}
	return e.typ
}

func (e *Event) Payload() Payload {
	if e == nil {
		return nil
	}
	return e.payload
}

func (e *Event) Timestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.header.Timestamp
}

func (e *Event) CorrelationID() string {
	if e == nil {
		return ""
	}
	return e.header.CorrelationID
}

// CorrelationOrID returns the correlation id, falling back to the event id so
// that every audit row can be threaded back to its trigger.
func (e *Event) CorrelationOrID() string {
	if e == nil {
		return ""
	}
	if e.header.CorrelationID != "" {
		return e.header.CorrelationID
	}
	return e.header.ID.String()
}

func (e *Event) Metadata() map[string]string {
	if e == nil || e.header.Metadata == nil {
		return nil
	}
	return maps.Clone(e.header.Metadata)
}

func (e *Event) Header() Header {
	if e == nil {
		return Header{}
	}
	h := e.header
	h.Metadata = e.Metadata()
	return h
}

// Extract returns a context carrying the producer's trace context.
func (e *Event) Extract() context.Context {
	if e == nil {
		return context.Background()
	}
	return e.otel.Extract()
}

type RehydrateArgs struct {
	Header  Header
	Carrier map[string]string
	Type    Type
	Payload Payload
}

// Rehydrate builds an envelope from arbitrary parts without any checks.
func Rehydrate(args RehydrateArgs) *Event {
	return &Event{
		header:  args.Header,
		otel:    Otel{Carrier: maps.Clone(args.Carrier)},
		typ:     args.Type,
		payload: args.Payload,
	}
}

type Recorder struct {
	events []*Event
}

func (r *Recorder) AddEvent(e *Event) {
	if r == nil || e == nil {
		return
	}
	r.events = append(r.events, e)
}

func (r *Recorder) GetUncommittedEvents() []*Event {
	if r == nil {
		return nil
	}
	return r.events
}

func (r *Recorder) MarkEventsAsCommitted() {
	if r == nil {
		return
	}
	r.events = []*Event{}
}
