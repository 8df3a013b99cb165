package registration

import (
	"time"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
)

// Reasons stamped on recorded status_changed events.
const (
	ReasonAutoApproved   = "auto_approved"
	ReasonManualOverride = "manual_override"
	ReasonSubmitted      = "submitted"
)

// ApprovalPolicy decides what a direct approve does when not every dimension
// has passed.
type ApprovalPolicy int

const (
	// ApprovalAdvisory applies the approval and flags it as Bypassed.
	ApprovalAdvisory ApprovalPolicy = iota
	// ApprovalStrict refuses the approval.
	ApprovalStrict
)

// Outcome reports what a transition did. A refused transition has
// Applied=false, a non-nil Refusal and Before == After.
type Outcome struct {
	Applied      bool
	Refusal      error
	Before       review.Status
	After        review.Status
	Dimension    review.Dimension
	AutoApproved bool
	Bypassed     bool
}

func (o Outcome) Refused() bool {
	return o.Refusal != nil
}

func (o Outcome) StatusChanged() bool {
	return o.Applied && o.Before != o.After
}

// DeriveStatus maps a checklist to the overall status. Rules apply in order:
// any rejected, all passed, submitted, otherwise pending.
func DeriveStatus(c review.Checklist, submitted bool) review.Status {
	c = c.Normalized()
	switch {
	case c.AnyRejected():
		return review.StatusRejected
	case c.AllPassed():
		return review.StatusApproved
	case submitted:
		return review.StatusWaitingForReview
	default:
		return review.StatusPending
	}
}

func IsApproved(r *Registration) bool {
	return r != nil && r.status == review.StatusApproved
}

// RequestUpdate sends dim back to the applicant and stores reason as the
// update reason.
func (r *Registration) RequestUpdate(actor Actor, dim review.Dimension, reason string) Outcome {
	const op = "registration.Registration.RequestUpdate"
	return r.transitionDimension(op, actor, dim, review.DimensionNeedsUpdate, reason)
}

// MarkPass passes dim. Passing the last open dimension auto-approves.
func (r *Registration) MarkPass(actor Actor, dim review.Dimension) Outcome {
	const op = "registration.Registration.MarkPass"
	return r.transitionDimension(op, actor, dim, review.DimensionPassed, "")
}

// RejectDimension rejects dim, which rejects the registration as a whole.
func (r *Registration) RejectDimension(actor Actor, dim review.Dimension, reason string) Outcome {
	const op = "registration.Registration.RejectDimension"
	return r.transitionDimension(op, actor, dim, review.DimensionRejected, reason)
}

// Track moves dim to any reachable dimension status, carrying notes.
func (r *Registration) Track(actor Actor, dim review.Dimension, to review.DimensionStatus, notes string) Outcome {
	const op = "registration.Registration.Track"
	if to == review.DimensionPending || !to.Valid() {
		return r.refuse(op, dim, ErrInvalidTargetStatus)
	}

	return r.transitionDimension(op, actor, dim, to, notes)
}

// CheckDimensionEdit returns the refusal that moving dim to the given status
// would meet, without changing anything.
func (r *Registration) CheckDimensionEdit(dim review.Dimension, to review.DimensionStatus) error {
	if r == nil {
		return ErrNilRegistration
	}
	current, ok := r.checklist.Get(dim)
	if !ok {
		return ErrUnknownDimension
	}
	if IsApproved(r) {
		return ErrRegistrationApproved
	}

	switch {
	case to == review.DimensionNeedsUpdate && current.Status == review.DimensionNeedsUpdate:
		return ErrAlreadyNeedsUpdate
	case to == review.DimensionPassed && !review.CanTransition(current.Status, to):
		return ErrMarkPassNotAllowed
	case !review.CanTransition(current.Status, to):
		return ErrInvalidTransition
	}
	if r.status == review.StatusRejected && !r.checklist.AnyRejected() {
		// rejected directly by an admin; dimension edits would silently reopen it
		return ErrRegistrationRejected
	}

	return nil
}

func (r *Registration) transitionDimension(
	op string,
	actor Actor,
	dim review.Dimension,
	to review.DimensionStatus,
	notes string,
) Outcome {
	if r == nil {
		return Outcome{Refusal: errorx.Wrap(ErrNilRegistration, op), Dimension: dim}
	}
	if err := r.CheckDimensionEdit(dim, to); err != nil {
		return r.refuse(op, dim, err)
	}

	current, _ := r.checklist.Get(dim)
	item := review.Item{Status: to, Notes: current.Notes}
	if notes != "" {
		item.Notes = notes
	}
	r.checklist, _ = r.checklist.With(dim, item)
	if to == review.DimensionNeedsUpdate {
		r.updateReason = notes
	}

	before := r.status
	r.status = DeriveStatus(r.checklist, r.submitted)
	r.updatedAt = time.Now().UTC()

	out := Outcome{Applied: true, Before: before, After: r.status, Dimension: dim}
	if r.status == before {
		return out
	}

	if r.status == review.StatusApproved {
		out.AutoApproved = true
		r.recordStatusChange(before, SystemActor, ReasonAutoApproved)
	} else {
		r.recordStatusChange(before, actor, notes)
	}

	return out
}

// Approve sets the overall status to approved. With ApprovalAdvisory an
// approval over an incomplete checklist is applied and reported as Bypassed.
func (r *Registration) Approve(actor Actor, policy ApprovalPolicy) Outcome {
	const op = "registration.Registration.Approve"
	if r == nil {
		return Outcome{Refusal: errorx.Wrap(ErrNilRegistration, op)}
	}
	if IsApproved(r) {
		return r.refuse(op, "", ErrAlreadyApproved)
	}
	if r.checklist.AnyRejected() {
		return r.refuse(op, "", ErrApprovalBlocked)
	}

	bypassed := !r.checklist.AllPassed()
	if bypassed && policy == ApprovalStrict {
		return r.refuse(op, "", ErrApprovalIncomplete)
	}

	before := r.status
	r.status = review.StatusApproved
	r.updatedAt = time.Now().UTC()

	reason := ""
	if bypassed {
		reason = ReasonManualOverride
	}
	r.recordStatusChange(before, actor, reason)

	return Outcome{Applied: true, Before: before, After: r.status, Bypassed: bypassed}
}

// Reject sets the overall status to rejected regardless of the checklist.
func (r *Registration) Reject(actor Actor, reason string) Outcome {
	const op = "registration.Registration.Reject"
	if r == nil {
		return Outcome{Refusal: errorx.Wrap(ErrNilRegistration, op)}
	}
	if r.status == review.StatusRejected {
		return r.refuse(op, "", ErrAlreadyRejected)
	}

	before := r.status
	r.status = review.StatusRejected
	if reason != "" {
		r.updateReason = reason
	}
	r.updatedAt = time.Now().UTC()
	r.recordStatusChange(before, actor, reason)

	return Outcome{Applied: true, Before: before, After: r.status}
}

// Submit marks the registration as fully submitted by the applicant.
func (r *Registration) Submit(actor Actor) Outcome {
	const op = "registration.Registration.Submit"
	if r == nil {
		return Outcome{Refusal: errorx.Wrap(ErrNilRegistration, op)}
	}
	if r.submitted {
		return r.refuse(op, "", ErrAlreadySubmitted)
	}

	before := r.status
	r.submitted = true
	if before == review.StatusPending {
		r.status = DeriveStatus(r.checklist, r.submitted)
	}
	r.updatedAt = time.Now().UTC()

	out := Outcome{Applied: true, Before: before, After: r.status}
	if r.status != before {
		if r.status == review.StatusApproved {
			out.AutoApproved = true
			r.recordStatusChange(before, SystemActor, ReasonAutoApproved)
		} else {
			r.recordStatusChange(before, actor, ReasonSubmitted)
		}
	}

	return out
}

func (r *Registration) refuse(op string, dim review.Dimension, err error) Outcome {
	return Outcome{
		Refusal:   errorx.Wrap(err, op),
		Before:    r.status,
		After:     r.status,
		Dimension: dim,
	}
}

func (r *Registration) recordStatusChange(before review.Status, actor Actor, reason string) {
	actorRole := actor.Role
	if !role.IsActorValid(actorRole) {
		actorRole = role.System
	}
	snapshot := r.Snapshot()

	r.AddEvent(event.NewStatusChanged(event.StatusChanged{
		RegistrationID: r.registrationID,
		Before:         before,
		After:          r.status,
		ActorRole:      actorRole,
		ActorEmail:     actor.Email,
		Reason:         reason,
		Registration:   &snapshot,
	}))
}

// ApplyChecklist replaces the whole checklist, as a batch import does, and
// re-derives the overall status. An approved registration only accepts a
// checklist that keeps every dimension passed.
func (r *Registration) ApplyChecklist(actor Actor, c review.Checklist, submitted bool) Outcome {
	const op = "registration.Registration.ApplyChecklist"
	if r == nil {
		return Outcome{Refusal: errorx.Wrap(ErrNilRegistration, op)}
	}
	c = c.Normalized()
	if IsApproved(r) {
		if !c.AllPassed() {
			return r.refuse(op, "", ErrRegistrationApproved)
		}
		return Outcome{Applied: true, Before: r.status, After: r.status}
	}

	before := r.status
	r.checklist = c
	r.submitted = r.submitted || submitted
	r.status = DeriveStatus(r.checklist, r.submitted)
	r.updatedAt = time.Now().UTC()

	out := Outcome{Applied: true, Before: before, After: r.status}
	if r.status == before {
		return out
	}
	if r.status == review.StatusApproved {
		out.AutoApproved = true
		r.recordStatusChange(before, SystemActor, ReasonAutoApproved)
	} else {
		r.recordStatusChange(before, actor, "")
	}

	return out
}
