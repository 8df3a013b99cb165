package registration

import (
	"time"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

// Actor identifies who asked for a transition.
type Actor struct {
	Role  role.Actor
	Email string
}

var SystemActor = Actor{Role: role.System}

func AdminActor(email string) Actor {
	return Actor{Role: role.Admin, Email: email}
}

// Registration is the reviewable view of a registration owned by the store.
// Only status, checklist, update reason and submitted flag change here.
type Registration struct {
	event.Recorder
	id             int64
	registrationID string
	status         review.Status
	checklist      review.Checklist
	updateReason   string
	submitted      bool
	email          string
	phone          string
	firstName      string
	lastName       string
	createdAt      time.Time
	updatedAt      time.Time
}

type RehydrateArgs struct {
	ID             int64
	RegistrationID string
	Status         review.Status
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

// Rehydrate rebuilds a registration from stored state. A status past pending
// implies the applicant submitted, whatever the stored flag says.
func Rehydrate(args RehydrateArgs) *Registration {
	status := args.Status
	if !status.Valid() {
		status = review.StatusPending
	}

	return &Registration{
		id:             args.ID,
		registrationID: args.RegistrationID,
		status:         status,
		checklist:      args.Checklist.Normalized(),
		updateReason:   args.UpdateReason,
		submitted:      args.Submitted || status != review.StatusPending,
		email:          args.Email,
		phone:          args.Phone,
		firstName:      args.FirstName,
		lastName:       args.LastName,
		createdAt:      args.CreatedAt,
		updatedAt:      args.UpdatedAt,
	}
}

// FromSnapshot builds a view from the denormalized copy carried by an event.
func FromSnapshot(s event.RegistrationSnapshot) *Registration {
	return Rehydrate(RehydrateArgs{
		ID:             s.ID,
		RegistrationID: s.RegistrationID,
		Status:         s.Status,
		Checklist:      s.Checklist,
		UpdateReason:   s.UpdateReason,
		Submitted:      s.Submitted,
		Email:          s.Email,
		Phone:          s.Phone,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
	})
}

func (r *Registration) Snapshot() event.RegistrationSnapshot {
	if r == nil {
		return event.RegistrationSnapshot{}
	}

	return event.RegistrationSnapshot{
		ID:             r.id,
		RegistrationID: r.registrationID,
		Status:         r.status,
		Checklist:      r.checklist,
		UpdateReason:   r.updateReason,
		Submitted:      r.submitted,
		Email:          r.email,
		Phone:          r.phone,
		FirstName:      r.firstName,
		LastName:       r.lastName,
	}
}

func (r *Registration) ID() int64 {
	if r == nil {
		return 0
	}

	return r.id
}

func (r *Registration) RegistrationID() string {
	if r == nil {
		return ""
	}

	return r.registrationID
}

func (r *Registration) Status() review.Status {
	if r == nil {
		return ""
	}

	return r.status
}

func (r *Registration) Checklist() review.Checklist {
	if r == nil {
		return review.Checklist{}
	}

	return r.checklist
}

func (r *Registration) UpdateReason() string {
	if r == nil {
		return ""
	}

	return r.updateReason
}

func (r *Registration) Submitted() bool {
	if r == nil {
		return false
	}

	return r.submitted
}

func (r *Registration) Email() string {
	if r == nil {
		return ""
	}

	return r.email
}

func (r *Registration) Phone() string {
	if r == nil {
		return ""
	}

	return r.phone
}

func (r *Registration) FirstName() string {
	if r == nil {
		return ""
	}

	return r.firstName
}

func (r *Registration) LastName() string {
	if r == nil {
		return ""
	}

	return r.lastName
}

func (r *Registration) FullName() string {
	if r == nil {
		return ""
	}
	if r.lastName == "" {
		return r.firstName
	}

	return r.firstName + " " + r.lastName
}

func (r *Registration) CreatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}

	return r.createdAt
}

func (r *Registration) UpdatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}

	return r.updatedAt
}

// ReviewUpdate is the part of a registration the review flow persists.
type ReviewUpdate struct {
	Status       review.Status
	Checklist    review.Checklist
	UpdateReason string
	Submitted    bool
}

func (r *Registration) ReviewUpdate() ReviewUpdate {
	if r == nil {
		return ReviewUpdate{}
	}

	return ReviewUpdate{
		Status:       r.status,
		Checklist:    r.checklist,
		UpdateReason: r.updateReason,
		Submitted:    r.submitted,
	}
}
