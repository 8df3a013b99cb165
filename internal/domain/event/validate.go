package event

import (
	"errors"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"
)

var ErrNilEvent = errors.New("event is nil")

// ValidationError re-checks the structural completeness of e regardless of
// how it was built. It returns nil for a dispatchable event.
func ValidationError(e *Event) error {
	if e == nil {
		return ErrNilEvent
	}

	errs := validation.Errors{}
	if e.header.ID == uuid.Nil {
		errs["id"] = validation.ErrRequired
	}
	if e.header.Timestamp.IsZero() {
		errs["timestamp"] = validation.ErrRequired
	}
	if !e.typ.Valid() {
		errs["type"] = ErrUnknownType
	}

	switch {
	case e.payload == nil:
		errs["payload"] = validation.ErrRequired
	case e.payload.EventType() != e.typ:
		errs["payload"] = ErrPayloadMismatch
	default:
		if err := e.payload.Validate(); err != nil {
			errs["payload"] = err
		}
	}

	return errs.Filter()
}

// Validate reports whether e is structurally complete for its type.
func Validate(e *Event) bool {
	return ValidationError(e) == nil
}
