package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

const testActor = "reviewer@yec.example"

func testSnapshot() RegistrationSnapshot {
	return RegistrationSnapshot{
		ID:             1,
		RegistrationID: "YEC-0001",
		Status:         review.StatusWaitingForReview,
		Checklist:      review.NewChecklist(),
		Submitted:      true,
		Email:          "applicant@example.com",
		Phone:          "+77001234567",
		FirstName:      "Aida",
	}
}

func TestFactory_StampsHeader(t *testing.T) {
	before := time.Now().UTC()

	e := NewSubmissionCreated(testSnapshot())

	require.NotNil(t, e)
	assert.NotEqual(t, uuid.Nil, e.ID())
	assert.Equal(t, uuid.Version(4), e.ID().Version())
	assert.Equal(t, TypeSubmissionCreated, e.Type())
	assert.Equal(t, time.UTC, e.Timestamp().Location())
	assert.WithinDuration(t, before, e.Timestamp(), time.Second)
	assert.Empty(t, e.CorrelationID())
	assert.Equal(t, e.ID().String(), e.CorrelationOrID())
	assert.True(t, Validate(e))
}

func TestFactory_UniqueIDs(t *testing.T) {
	seen := make(map[uuid.UUID]struct{})
	for range 100 {
		e := NewLoginSubmitted("user@example.com")
		_, dup := seen[e.ID()]
		require.False(t, dup, "duplicate event id %s", e.ID())
		seen[e.ID()] = struct{}{}
	}
}

func TestFactory_Options(t *testing.T) {
	e := NewAdminApproved(testSnapshot(), testActor,
		WithCorrelationID("batch-42"),
		WithMetadata("source", "admin-ui"),
	)

	assert.Equal(t, "batch-42", e.CorrelationID())
	assert.Equal(t, "batch-42", e.CorrelationOrID())
	assert.Equal(t, map[string]string{"source": "admin-ui"}, e.Metadata())

	md := e.Metadata()
	md["source"] = "tampered"
	assert.Equal(t, "admin-ui", e.Metadata()["source"], "metadata must not be mutable through the getter")
}

func TestFactory_WithTraceContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	e := NewLoginSucceeded("user@example.com", "u-1", WithTraceContext(ctx))

	extracted := trace.SpanContextFromContext(e.Extract())
	assert.Equal(t, traceID, extracted.TraceID())
	assert.Equal(t, spanID, extracted.SpanID())
}

func TestFactory_TypedConstructors(t *testing.T) {
	snap := testSnapshot()
	tests := []struct {
		name  string
		event *Event
		want  Type
	}{
		{"submission created", NewSubmissionCreated(snap), TypeSubmissionCreated},
		{"batch upserted", NewBatchUpserted([]RegistrationSnapshot{snap}, testActor, 1), TypeBatchUpserted},
		{"request update", NewAdminRequestUpdate(snap, testActor, review.Profile, "blurry photo"), TypeAdminRequestUpdate},
		{"mark pass", NewAdminMarkPass(snap, testActor, review.Payment), TypeAdminMarkPass},
		{"approved", NewAdminApproved(snap, testActor), TypeAdminApproved},
		{"rejected", NewAdminRejected(snap, testActor, "duplicate"), TypeAdminRejected},
		{"document reuploaded", NewDocumentReuploaded(snap, "payment_receipt"), TypeDocumentReuploaded},
		{"status changed", NewStatusChanged(StatusChanged{
			RegistrationID: snap.RegistrationID,
			Before:         review.StatusWaitingForReview,
			After:          review.StatusApproved,
			ActorRole:      role.System,
		}), TypeStatusChanged},
		{"login submitted", NewLoginSubmitted("user@example.com"), TypeLoginSubmitted},
		{"login succeeded", NewLoginSucceeded("user@example.com", "u-1"), TypeLoginSucceeded},
		{"review track", NewReviewTrackUpdated(snap, testActor, review.TCC, review.DimensionPassed, ""), TypeReviewTrackUpdated},
		{"sweep completed", NewAutoRejectSweepCompleted([]string{"YEC-0002", "YEC-0003"}, "deadline"), TypeAutoRejectSweepCompleted},
		{"retry requested", NewNotificationRetryRequested(NewAdminApproved(snap, testActor)), TypeNotificationRetryRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Type())
			assert.Equal(t, tt.want, tt.event.Payload().EventType())
			assert.NoError(t, ValidationError(tt.event))
		})
	}
	assert.Len(t, tests, len(Types()), "every event type needs a constructor")
}

func TestFactory_SweepCompleted(t *testing.T) {
	e := NewAutoRejectSweepCompleted([]string{"YEC-0002", "YEC-0003"}, "deadline elapsed")

	p, ok := e.Payload().(AutoRejectSweepCompleted)
	require.True(t, ok)
	assert.Equal(t, role.System, p.ActorRole)
	assert.Equal(t, 2, p.RejectedCount)
	assert.True(t, p.DeadlineElapsed)
}

func TestFactory_RetryInheritsCorrelation(t *testing.T) {
	t.Run("explicit correlation", func(t *testing.T) {
		original := NewAdminApproved(testSnapshot(), testActor, WithCorrelationID("op-7"))

		retry := NewNotificationRetryRequested(original)

		assert.Equal(t, "op-7", retry.CorrelationID())
		assert.NotEqual(t, original.ID(), retry.ID())
		p := retry.Payload().(NotificationRetryRequested)
		assert.Equal(t, original.ID(), p.OriginalID)
		assert.Equal(t, TypeAdminApproved, p.OriginalType)
	})

	t.Run("falls back to original id", func(t *testing.T) {
		original := NewAdminApproved(testSnapshot(), testActor)

		retry := NewNotificationRetryRequested(original)

		assert.Equal(t, original.ID().String(), retry.CorrelationID())
	})

	t.Run("override", func(t *testing.T) {
		original := NewAdminApproved(testSnapshot(), testActor, WithCorrelationID("op-7"))

		retry := NewNotificationRetryRequested(original, WithCorrelationID("manual"))

		assert.Equal(t, "manual", retry.CorrelationID())
	})
}

func TestEvent_NilSafe(t *testing.T) {
	var e *Event

	assert.Equal(t, uuid.Nil, e.ID())
	assert.Empty(t, e.Type())
	assert.Nil(t, e.Payload())
	assert.True(t, e.Timestamp().IsZero())
	assert.Empty(t, e.CorrelationOrID())
	assert.Nil(t, e.Metadata())
	assert.NotNil(t, e.Extract())
	assert.False(t, Validate(e))
	assert.ErrorIs(t, ValidationError(e), ErrNilEvent)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.AddEvent(NewLoginSubmitted("a@b.c"))
	r.AddEvent(nil)
	r.AddEvent(NewLoginSubmitted("d@e.f"))

	assert.Len(t, r.GetUncommittedEvents(), 2)

	r.MarkEventsAsCommitted()
	assert.Empty(t, r.GetUncommittedEvents())
}
