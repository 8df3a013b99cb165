package reviewevent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/tests/mocks"
)

const adminEmail = "reviewer@yec.example"

type StatusUpdateSuite struct {
	Handler          *StatusUpdateHandler
	MockRegistration *mocks.RegistrationRepo
	MockEmitter      *mocks.EventRepo
}

func NewStatusUpdateSuite(policy registration.ApprovalPolicy) *StatusUpdateSuite {
	repo := mocks.NewRegistrationRepo()
	emitter := mocks.NewEventRepo()
	handler := NewStatusUpdateHandler(StatusUpdateHandlerArgs{
		Store:          repo,
		Emitter:        emitter,
		ApprovalPolicy: policy,
	})

	return &StatusUpdateSuite{
		Handler:          handler,
		MockRegistration: repo,
		MockEmitter:      emitter,
	}
}

func (s *StatusUpdateSuite) seed(
	t *testing.T,
	id string,
	status review.Status,
	submitted bool,
	payment, profile, tcc review.DimensionStatus,
) event.RegistrationSnapshot {
	t.Helper()

	reg := registration.Rehydrate(registration.RehydrateArgs{
		ID:             1,
		RegistrationID: id,
		Status:         status,
		Submitted:      submitted,
		Checklist: review.Checklist{
			Payment: review.Item{Status: payment},
			Profile: review.Item{Status: profile},
			TCC:     review.Item{Status: tcc},
		},
		Email:     "applicant@example.com",
		FirstName: "Aida",
	})
	s.MockRegistration.SeedRegistration(t, reg)

	return reg.Snapshot()
}

func (s *StatusUpdateSuite) seedWaiting(t *testing.T, id string) event.RegistrationSnapshot {
	t.Helper()

	return s.seed(t, id, review.StatusWaitingForReview, true,
		review.DimensionPending, review.DimensionPending, review.DimensionPending)
}

func TestStatusUpdateHandler_Name(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	assert.Equal(t, HandlerName, s.Handler.Name())
}

func TestSubscribedTypes(t *testing.T) {
	types := SubscribedTypes()

	assert.Subset(t, types, event.ReviewableTypes())
	assert.Contains(t, types, event.TypeSubmissionCreated)
	assert.Contains(t, types, event.TypeBatchUpserted)
	assert.Contains(t, types, event.TypeReviewTrackUpdated)
	assert.Contains(t, types, event.TypeAutoRejectSweepCompleted)
	assert.NotContains(t, types, event.TypeStatusChanged)
	assert.NotContains(t, types, event.TypeNotificationRetryRequested)
}

func TestStatusUpdateHandler_NilEvent(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)

	require.NoError(t, s.Handler.Handle(context.Background(), nil))
	s.MockEmitter.AssertEventCount(t, 0)
}

func TestStatusUpdateHandler_IgnoresUnrelatedEvents(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seedWaiting(t, "YEC-0001")

	for _, e := range []*event.Event{
		event.NewLoginSubmitted("a@b.c"),
		event.NewLoginSucceeded("a@b.c", "u-1"),
		event.NewStatusChanged(event.StatusChanged{
			RegistrationID: snap.RegistrationID,
			Before:         review.StatusPending,
			After:          review.StatusWaitingForReview,
			ActorRole:      role.User,
		}),
	} {
		require.NoError(t, s.Handler.Handle(context.Background(), e))
	}

	s.MockRegistration.AssertUpdateCount(t, "YEC-0001", 0)
	s.MockEmitter.AssertEventCount(t, 0)
}

func TestStatusUpdateHandler_MarkPass_AutoApproves(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seed(t, "YEC-0001", review.StatusWaitingForReview, true,
		review.DimensionPassed, review.DimensionPassed, review.DimensionPending)

	trigger := event.NewAdminMarkPass(snap, adminEmail, review.TCC, event.WithCorrelationID("corr-1"))
	require.NoError(t, s.Handler.Handle(context.Background(), trigger))

	s.MockRegistration.AssertUpdateCount(t, "YEC-0001", 1)
	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusApproved).
		AssertDimension(t, review.TCC, review.DimensionPassed).
		AssertInvariant(t)

	s.MockEmitter.AssertEventCount(t, 1)
	emitted, p := mocks.RequireEventExists[event.StatusChanged](t, s.MockEmitter)
	assert.Equal(t, review.StatusWaitingForReview, p.Before)
	assert.Equal(t, review.StatusApproved, p.After)
	assert.Equal(t, role.System, p.ActorRole)
	assert.Equal(t, registration.ReasonAutoApproved, p.Reason)
	assert.Equal(t, "YEC-0001", p.RegistrationID)
	require.NotNil(t, p.Registration)
	assert.Equal(t, "applicant@example.com", p.Registration.Email)

	assert.Equal(t, "corr-1", emitted.CorrelationID())
	assert.Equal(t, trigger.ID().String(), emitted.Metadata()["caused_by"])
	assert.NotEqual(t, trigger.ID(), emitted.ID())
	require.NoError(t, event.ValidationError(emitted))
}

func TestStatusUpdateHandler_MarkPass_WithoutStatusChange(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seedWaiting(t, "YEC-0001")

	require.NoError(t, s.Handler.Handle(context.Background(), event.NewAdminMarkPass(snap, adminEmail, review.Payment)))

	s.MockRegistration.AssertUpdateCount(t, "YEC-0001", 1)
	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusWaitingForReview).
		AssertDimension(t, review.Payment, review.DimensionPassed)
	s.MockEmitter.AssertEventCount(t, 0)
}

func TestStatusUpdateHandler_UsesStoreNotSnapshot(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	s.seed(t, "YEC-0001", review.StatusWaitingForReview, true,
		review.DimensionPassed, review.DimensionPassed, review.DimensionPending)

	stale := event.RegistrationSnapshot{RegistrationID: "YEC-0001", Status: review.StatusPending}
	require.NoError(t, s.Handler.Handle(context.Background(), event.NewAdminMarkPass(stale, adminEmail, review.TCC)))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").AssertStatus(t, review.StatusApproved)
}

func TestStatusUpdateHandler_RequestUpdate(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seedWaiting(t, "YEC-0001")

	e := event.NewAdminRequestUpdate(snap, adminEmail, review.Profile, "Photo is blurry")
	require.NoError(t, s.Handler.Handle(context.Background(), e))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusWaitingForReview).
		AssertDimension(t, review.Profile, review.DimensionNeedsUpdate).
		AssertNotes(t, review.Profile, "Photo is blurry").
		AssertUpdateReason(t, "Photo is blurry")
	s.MockEmitter.AssertEventCount(t, 0)
}

func TestStatusUpdateHandler_Track(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seedWaiting(t, "YEC-0001")

	e := event.NewReviewTrackUpdated(snap, adminEmail, review.Payment, review.DimensionRejected, "fake receipt")
	require.NoError(t, s.Handler.Handle(context.Background(), e))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusRejected).
		AssertDimension(t, review.Payment, review.DimensionRejected)

	_, p := mocks.RequireEventExists[event.StatusChanged](t, s.MockEmitter)
	assert.Equal(t, review.StatusRejected, p.After)
	assert.Equal(t, role.Admin, p.ActorRole)
	assert.Equal(t, adminEmail, p.ActorEmail)
}

func TestStatusUpdateHandler_Approve(t *testing.T) {
	tests := []struct {
		name       string
		policy     registration.ApprovalPolicy
		wantStatus review.Status
		wantEvents int
	}{
		{
			name:       "advisory policy approves an incomplete checklist",
			policy:     registration.ApprovalAdvisory,
			wantStatus: review.StatusApproved,
			wantEvents: 1,
		},
		{
			name:       "strict policy refuses an incomplete checklist",
			policy:     registration.ApprovalStrict,
			wantStatus: review.StatusWaitingForReview,
			wantEvents: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatusUpdateSuite(tt.policy)
			snap := s.seedWaiting(t, "YEC-0001")

			require.NoError(t, s.Handler.Handle(context.Background(), event.NewAdminApproved(snap, adminEmail)))

			s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").AssertStatus(t, tt.wantStatus)
			s.MockEmitter.AssertEventCount(t, tt.wantEvents)
		})
	}
}

func TestStatusUpdateHandler_Reject(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	snap := s.seedWaiting(t, "YEC-0001")

	require.NoError(t, s.Handler.Handle(context.Background(), event.NewAdminRejected(snap, adminEmail, "duplicate")))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusRejected).
		AssertUpdateReason(t, "duplicate")
	_, p := mocks.RequireEventExists[event.StatusChanged](t, s.MockEmitter)
	assert.Equal(t, "duplicate", p.Reason)
}

func TestStatusUpdateHandler_Submission(t *testing.T) {
	tests := []struct {
		name  string
		event func(snap event.RegistrationSnapshot) *event.Event
	}{
		{
			name: "submission created",
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewSubmissionCreated(snap)
			},
		},
		{
			name: "document reuploaded",
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewDocumentReuploaded(snap, "passport")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
			snap := s.seed(t, "YEC-0001", review.StatusPending, false,
				review.DimensionPending, review.DimensionPending, review.DimensionPending)

			require.NoError(t, s.Handler.Handle(context.Background(), tt.event(snap)))

			s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").AssertStatus(t, review.StatusWaitingForReview)
			_, p := mocks.RequireEventExists[event.StatusChanged](t, s.MockEmitter)
			assert.Equal(t, role.User, p.ActorRole)
			assert.Equal(t, registration.ReasonSubmitted, p.Reason)
		})
	}
}

func TestStatusUpdateHandler_RefusalIsNoOp(t *testing.T) {
	tests := []struct {
		name   string
		status review.Status
		dims   [3]review.DimensionStatus
		event  func(snap event.RegistrationSnapshot) *event.Event
	}{
		{
			name:   "mark pass on approved registration",
			status: review.StatusApproved,
			dims:   [3]review.DimensionStatus{review.DimensionPassed, review.DimensionPassed, review.DimensionPassed},
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewAdminMarkPass(snap, adminEmail, review.Payment)
			},
		},
		{
			name:   "request update twice",
			status: review.StatusWaitingForReview,
			dims:   [3]review.DimensionStatus{review.DimensionNeedsUpdate, review.DimensionPending, review.DimensionPending},
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewAdminRequestUpdate(snap, adminEmail, review.Payment, "again")
			},
		},
		{
			name:   "unknown dimension",
			status: review.StatusWaitingForReview,
			dims:   [3]review.DimensionStatus{review.DimensionPending, review.DimensionPending, review.DimensionPending},
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewAdminMarkPass(snap, adminEmail, review.Dimension("transcript"))
			},
		},
		{
			name:   "reject twice",
			status: review.StatusRejected,
			dims:   [3]review.DimensionStatus{review.DimensionPending, review.DimensionPending, review.DimensionPending},
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewAdminRejected(snap, adminEmail, "again")
			},
		},
		{
			name:   "approve with rejected dimension",
			status: review.StatusRejected,
			dims:   [3]review.DimensionStatus{review.DimensionRejected, review.DimensionPassed, review.DimensionPassed},
			event: func(snap event.RegistrationSnapshot) *event.Event {
				return event.NewAdminApproved(snap, adminEmail)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
			snap := s.seed(t, "YEC-0001", tt.status, true, tt.dims[0], tt.dims[1], tt.dims[2])

			require.NoError(t, s.Handler.Handle(context.Background(), tt.event(snap)))

			s.MockRegistration.AssertUpdateCount(t, "YEC-0001", 0)
			assert.Equal(t, snap, s.MockRegistration.Snapshot(t, "YEC-0001"))
			s.MockEmitter.AssertEventCount(t, 0)
		})
	}
}

func TestStatusUpdateHandler_Batch(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	a := s.seedWaiting(t, "YEC-0001")
	b := s.seedWaiting(t, "YEC-0002")
	c := s.seed(t, "YEC-0003", review.StatusApproved, true,
		review.DimensionPassed, review.DimensionPassed, review.DimensionPassed)

	a.Checklist = review.Checklist{
		Payment: review.Item{Status: review.DimensionPassed},
		Profile: review.Item{Status: review.DimensionPassed},
		TCC:     review.Item{Status: review.DimensionPassed},
	}
	b.Checklist.Profile = review.Item{Status: review.DimensionNeedsUpdate, Notes: "blurry"}
	c.Checklist.Payment = review.Item{Status: review.DimensionRejected}
	missing := event.RegistrationSnapshot{RegistrationID: "YEC-9999"}

	e := event.NewBatchUpserted([]event.RegistrationSnapshot{a, b, c, missing}, adminEmail, 4)
	require.NoError(t, s.Handler.Handle(context.Background(), e))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").AssertStatus(t, review.StatusApproved)
	s.MockRegistration.AssertRegistrationExists(t, "YEC-0002").
		AssertStatus(t, review.StatusWaitingForReview).
		AssertDimension(t, review.Profile, review.DimensionNeedsUpdate)
	s.MockRegistration.AssertRegistrationExists(t, "YEC-0003").
		AssertStatus(t, review.StatusApproved).
		AssertDimension(t, review.Payment, review.DimensionPassed)
	s.MockRegistration.AssertUpdateCount(t, "YEC-0003", 0)

	changes := s.MockEmitter.EventsOfType(event.TypeStatusChanged)
	require.Len(t, changes, 1)
	p := changes[0].Payload().(event.StatusChanged)
	assert.Equal(t, "YEC-0001", p.RegistrationID)
	assert.Equal(t, role.System, p.ActorRole)
}

func TestStatusUpdateHandler_Sweep(t *testing.T) {
	s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
	s.seedWaiting(t, "YEC-0001")
	s.seed(t, "YEC-0002", review.StatusRejected, true,
		review.DimensionPending, review.DimensionPending, review.DimensionPending)

	e := event.NewAutoRejectSweepCompleted([]string{"YEC-0001", "YEC-0002"}, "deadline passed")
	require.NoError(t, s.Handler.Handle(context.Background(), e))

	s.MockRegistration.AssertRegistrationExists(t, "YEC-0001").
		AssertStatus(t, review.StatusRejected).
		AssertUpdateReason(t, "deadline passed")
	s.MockRegistration.AssertUpdateCount(t, "YEC-0002", 0)

	_, p := mocks.RequireEventExists[event.StatusChanged](t, s.MockEmitter)
	assert.Equal(t, role.System, p.ActorRole)
	s.MockEmitter.AssertEventCount(t, 1)
}

func TestStatusUpdateHandler_StoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")

	t.Run("missing registration", func(t *testing.T) {
		s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
		e := event.NewAdminMarkPass(event.RegistrationSnapshot{RegistrationID: "YEC-0404"}, adminEmail, review.TCC)

		err := s.Handler.Handle(context.Background(), e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YEC-0404")
	})

	t.Run("get fails", func(t *testing.T) {
		s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
		snap := s.seedWaiting(t, "YEC-0001")
		s.MockRegistration.FailGet(storeErr)

		err := s.Handler.Handle(context.Background(), event.NewAdminMarkPass(snap, adminEmail, review.TCC))
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("update fails", func(t *testing.T) {
		s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
		snap := s.seed(t, "YEC-0001", review.StatusWaitingForReview, true,
			review.DimensionPassed, review.DimensionPassed, review.DimensionPending)
		s.MockRegistration.FailUpdate(storeErr)

		err := s.Handler.Handle(context.Background(), event.NewAdminMarkPass(snap, adminEmail, review.TCC))
		assert.ErrorIs(t, err, storeErr)
		s.MockEmitter.AssertEventCount(t, 0)
	})

	t.Run("batch list fails", func(t *testing.T) {
		s := NewStatusUpdateSuite(registration.ApprovalAdvisory)
		snap := s.seedWaiting(t, "YEC-0001")
		s.MockRegistration.FailGet(storeErr)

		err := s.Handler.Handle(context.Background(), event.NewBatchUpserted([]event.RegistrationSnapshot{snap}, adminEmail, 1))
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestStatusUpdateHandler_WithoutEmitter(t *testing.T) {
	repo := mocks.NewRegistrationRepo()
	handler := NewStatusUpdateHandler(StatusUpdateHandlerArgs{Store: repo})
	reg := registration.Rehydrate(registration.RehydrateArgs{
		RegistrationID: "YEC-0001",
		Status:         review.StatusWaitingForReview,
		Submitted:      true,
		Checklist: review.Checklist{
			Payment: review.Item{Status: review.DimensionPassed},
			Profile: review.Item{Status: review.DimensionPassed},
		},
	})
	repo.SeedRegistration(t, reg)

	err := handler.Handle(context.Background(), event.NewAdminMarkPass(reg.Snapshot(), adminEmail, review.TCC))
	require.NoError(t, err)
	repo.AssertRegistrationExists(t, "YEC-0001").AssertStatus(t, review.StatusApproved)
}
