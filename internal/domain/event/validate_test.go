package event

import (
	"testing"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/validationx"
)

func TestValidationError_PayloadRules(t *testing.T) {
	snap := testSnapshot()
	noKey := snap
	noKey.RegistrationID = ""

	tests := []struct {
		name  string
		event *Event
		valid bool
	}{
		{name: "submission with business key", event: NewSubmissionCreated(snap), valid: true},
		{name: "submission without business key", event: NewSubmissionCreated(noKey)},

		{name: "batch", event: NewBatchUpserted([]RegistrationSnapshot{snap}, testActor, 1), valid: true},
		{name: "batch zero updated count", event: NewBatchUpserted([]RegistrationSnapshot{snap}, testActor, 0), valid: true},
		{name: "batch without registrations", event: NewBatchUpserted(nil, testActor, 0)},
		{name: "batch without actor", event: NewBatchUpserted([]RegistrationSnapshot{snap}, "", 1)},
		{name: "batch negative count", event: NewBatchUpserted([]RegistrationSnapshot{snap}, testActor, -1)},
		{name: "batch member without key", event: NewBatchUpserted([]RegistrationSnapshot{snap, noKey}, testActor, 2)},

		{name: "request update", event: NewAdminRequestUpdate(snap, testActor, review.Profile, "blurry"), valid: true},
		{name: "request update without actor", event: NewAdminRequestUpdate(snap, "", review.Profile, "blurry")},
		{name: "request update without key", event: NewAdminRequestUpdate(noKey, testActor, review.Profile, "blurry")},
		{name: "request update unknown dimension", event: NewAdminRequestUpdate(snap, testActor, "badge", "blurry")},
		{name: "mark pass without dimension", event: NewAdminMarkPass(snap, testActor, "")},
		{name: "approved without actor", event: NewAdminApproved(snap, "")},
		{name: "rejected without key", event: NewAdminRejected(noKey, testActor, "x")},

		{name: "document reuploaded", event: NewDocumentReuploaded(snap, "profile_photo"), valid: true},
		{name: "document without tag", event: NewDocumentReuploaded(snap, "")},

		{name: "status changed without before", event: NewStatusChanged(StatusChanged{
			After: review.StatusApproved, ActorRole: role.System,
		})},
		{name: "status changed with unknown actor", event: NewStatusChanged(StatusChanged{
			Before: review.StatusPending, After: review.StatusApproved, ActorRole: "robot",
		})},
		{name: "status changed without actor", event: NewStatusChanged(StatusChanged{
			Before: review.StatusPending, After: review.StatusApproved,
		})},

		{name: "login without at", event: NewLoginSubmitted("user.example.com")},
		{name: "login minimal shape", event: NewLoginSubmitted("@"), valid: true},
		{name: "login succeeded empty", event: NewLoginSucceeded("", "u-1")},

		{name: "track to pending", event: NewReviewTrackUpdated(snap, testActor, review.Payment, review.DimensionPending, "")},
		{name: "track without actor", event: NewReviewTrackUpdated(snap, "", review.Payment, review.DimensionPassed, "")},

		{name: "sweep empty", event: NewAutoRejectSweepCompleted(nil, "deadline"), valid: true},
		{name: "sweep with blank id", event: NewAutoRejectSweepCompleted([]string{"YEC-1", ""}, "deadline")},
		{name: "sweep count mismatch", event: New(AutoRejectSweepCompleted{
			ActorRole: role.System, RejectedIDs: []string{"YEC-1"}, RejectedCount: 3,
		})},
		{name: "sweep by admin", event: New(AutoRejectSweepCompleted{
			ActorRole: role.Admin, RejectedIDs: []string{"YEC-1"}, RejectedCount: 1,
		})},

		{name: "retry of nil", event: NewNotificationRetryRequested(nil)},
		{name: "retry of retry", event: NewNotificationRetryRequested(
			NewNotificationRetryRequested(NewAdminApproved(snap, testActor)),
		)},
		{name: "retry of invalid original", event: NewNotificationRetryRequested(NewAdminApproved(snap, ""))},
		{name: "retry with mismatched original", event: New(NotificationRetryRequested{
			OriginalID:   uuid.New(),
			OriginalType: TypeAdminRejected,
			Original:     AdminApproved{Registration: snap, ActorEmail: testActor},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidationError(tt.event)
			assert.Equal(t, tt.valid, Validate(tt.event), "validation error: %v", err)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidationError_Envelope(t *testing.T) {
	header := NewEventHeader()
	payload := AdminApproved{Registration: testSnapshot(), ActorEmail: testActor}

	tests := []struct {
		name     string
		args     RehydrateArgs
		expected validation.Errors
	}{
		{
			name:     "missing id",
			args:     RehydrateArgs{Header: Header{Timestamp: time.Now()}, Type: TypeAdminApproved, Payload: payload},
			expected: validation.Errors{"id": validation.ErrRequired},
		},
		{
			name:     "missing timestamp",
			args:     RehydrateArgs{Header: Header{ID: uuid.New()}, Type: TypeAdminApproved, Payload: payload},
			expected: validation.Errors{"timestamp": validation.ErrRequired},
		},
		{
			name:     "unknown type",
			args:     RehydrateArgs{Header: header, Type: "admin.promoted", Payload: payload},
			expected: validation.Errors{"type": ErrUnknownType, "payload": ErrPayloadMismatch},
		},
		{
			name:     "payload of another type",
			args:     RehydrateArgs{Header: header, Type: TypeAdminRejected, Payload: payload},
			expected: validation.Errors{"payload": ErrPayloadMismatch},
		},
		{
			name:     "missing payload",
			args:     RehydrateArgs{Header: header, Type: TypeAdminApproved},
			expected: validation.Errors{"payload": validation.ErrRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Rehydrate(tt.args)

			err := ValidationError(e)

			require.Error(t, err)
			assert.False(t, Validate(e))
			validationx.AssertValidationErrors(t, err, tt.expected)
		})
	}
}

func TestValidationError_HandBuiltValid(t *testing.T) {
	e := Rehydrate(RehydrateArgs{
		Header:  NewEventHeader(),
		Type:    TypeLoginSubmitted,
		Payload: LoginSubmitted{Email: "user@example.com"},
	})

	assert.True(t, Validate(e))
}

func TestValidationError_LoginMissingAt(t *testing.T) {
	err := NewLoginSubmitted("nobody").Payload().Validate()

	validationx.AssertValidationErrors(t, err, validation.Errors{"email": ErrEmailMissingAt})
}
