package builders

import (
	"fmt"
	"sync/atomic"
	"time"

	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
)

var seq atomic.Int64

type RegistrationBuilder struct {
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

func NewRegistrationBuilder() *RegistrationBuilder {
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &RegistrationBuilder{
		registrationID: fmt.Sprintf("YEC-%05d", seq.Add(1)),
		status:         review.StatusWaitingForReview,
		checklist:      review.NewChecklist(),
		submitted:      true,
		email:          "participant@example.com",
		phone:          "+77001234567",
		firstName:      "Aruzhan",
		lastName:       "Sadykova",
		createdAt:      now,
		updatedAt:      now,
	}
}

func (b *RegistrationBuilder) WithRegistrationID(id string) *RegistrationBuilder {
	b.registrationID = id
	return b
}

func (b *RegistrationBuilder) WithEmail(email string) *RegistrationBuilder {
	b.email = email
	return b
}

func (b *RegistrationBuilder) WithStatus(status review.Status) *RegistrationBuilder {
	b.status = status
	return b
}

func (b *RegistrationBuilder) WithDimension(d review.Dimension, status review.DimensionStatus, notes string) *RegistrationBuilder {
	b.checklist, _ = b.checklist.With(d, review.Item{Status: status, Notes: notes})
	return b
}

func (b *RegistrationBuilder) WithUpdateReason(reason string) *RegistrationBuilder {
	b.updateReason = reason
	return b
}

func (b *RegistrationBuilder) NotSubmitted() *RegistrationBuilder {
	b.submitted = false
	b.status = review.StatusPending
	return b
}

func (b *RegistrationBuilder) Approved() *RegistrationBuilder {
	b.status = review.StatusApproved
	for _, d := range review.Dimensions() {
		b.checklist, _ = b.checklist.With(d, review.Item{Status: review.DimensionPassed})
	}
	return b
}

func (b *RegistrationBuilder) Build() *registration.Registration {
	return registration.Rehydrate(registration.RehydrateArgs{
		RegistrationID: b.registrationID,
		Status:         b.status,
		Checklist:      b.checklist,
		UpdateReason:   b.updateReason,
		Submitted:      b.submitted,
		Email:          b.email,
		Phone:          b.phone,
		FirstName:      b.firstName,
		LastName:       b.lastName,
		CreatedAt:      b.createdAt,
		UpdatedAt:      b.updatedAt,
	})
}

// RegistrationFactory covers the common review starting points.
type RegistrationFactory struct{}

func (f *RegistrationFactory) WaitingForReview(email string) *registration.Registration {
	return NewRegistrationBuilder().
		WithEmail(email).
		Build()
}

func (f *RegistrationFactory) TwoPassed(email string, remaining review.Dimension) *registration.Registration {
	b := NewRegistrationBuilder().WithEmail(email)
	for _, d := range review.Dimensions() {
		if d != remaining {
			b.WithDimension(d, review.DimensionPassed, "")
		}
	}
	return b.Build()
}

func (f *RegistrationFactory) Approved(email string) *registration.Registration {
	return NewRegistrationBuilder().
		WithEmail(email).
		Approved().
		Build()
}
