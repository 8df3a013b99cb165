package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type RegistrationAssertion struct {
	Registration *Registration
}

func NewRegistrationAssertion(reg *Registration) *RegistrationAssertion {
	return &RegistrationAssertion{Registration: reg}
}

func (ra *RegistrationAssertion) AssertStatus(t *testing.T, expected review.Status) *RegistrationAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Registration.status, "Expected registration status to be %s, got %s", expected, ra.Registration.status)
	return ra
}

func (ra *RegistrationAssertion) AssertDimension(
	t *testing.T,
	dim review.Dimension,
	expected review.DimensionStatus,
) *RegistrationAssertion {
	t.Helper()
	item, ok := ra.Registration.checklist.Get(dim)
	require.True(t, ok, "unknown dimension %s", dim)
	assert.Equal(t, expected, item.Status, "Expected %s to be %s, got %s", dim, expected, item.Status)
	return ra
}

func (ra *RegistrationAssertion) AssertChecklist(
	t *testing.T,
	payment, profile, tcc review.DimensionStatus,
) *RegistrationAssertion {
	t.Helper()
	return ra.
		AssertDimension(t, review.Payment, payment).
		AssertDimension(t, review.Profile, profile).
		AssertDimension(t, review.TCC, tcc)
}

func (ra *RegistrationAssertion) AssertNotes(t *testing.T, dim review.Dimension, expected string) *RegistrationAssertion {
	t.Helper()
	item, _ := ra.Registration.checklist.Get(dim)
	assert.Equal(t, expected, item.Notes)
	return ra
}

func (ra *RegistrationAssertion) AssertUpdateReason(t *testing.T, expected string) *RegistrationAssertion {
	t.Helper()
	assert.Equal(t, expected, ra.Registration.updateReason)
	return ra
}

func (ra *RegistrationAssertion) AssertInvariant(t *testing.T) *RegistrationAssertion {
	t.Helper()
	c := ra.Registration.checklist
	if c.AnyRejected() {
		assert.Equal(t, review.StatusRejected, ra.Registration.status, "a rejected dimension must reject the registration")
	}
	if c.AllPassed() {
		assert.Equal(t, review.StatusApproved, ra.Registration.status, "all passed must approve the registration")
	}
	return ra
}

func (ra *RegistrationAssertion) AssertEventsCount(t *testing.T, expected int) *RegistrationAssertion {
	t.Helper()
	assert.Len(t, ra.Registration.GetUncommittedEvents(), expected, "Expected %d uncommitted events", expected)
	return ra
}

func (ra *RegistrationAssertion) AssertNoEvents(t *testing.T) *RegistrationAssertion {
	t.Helper()
	return ra.AssertEventsCount(t, 0)
}

// AssertLastStatusChange checks the most recent recorded status_changed event.
func (ra *RegistrationAssertion) AssertLastStatusChange(
	t *testing.T,
	before, after review.Status,
	actorRole role.Actor,
	reason string,
) *RegistrationAssertion {
	t.Helper()
	events := ra.Registration.GetUncommittedEvents()
	require.NotEmpty(t, events, "Expected at least one recorded event")

	e := events[len(events)-1]
	require.Equal(t, event.TypeStatusChanged, e.Type())
	payload, ok := e.Payload().(event.StatusChanged)
	require.True(t, ok, "Expected payload to be StatusChanged, got %T", e.Payload())

	assert.Equal(t, ra.Registration.registrationID, payload.RegistrationID)
	assert.Equal(t, before, payload.Before)
	assert.Equal(t, after, payload.After)
	assert.Equal(t, actorRole, payload.ActorRole)
	assert.Equal(t, reason, payload.Reason)
	require.NotNil(t, payload.Registration)
	assert.Equal(t, after, payload.Registration.Status)
	assert.True(t, event.Validate(e), "recorded event must pass validation")
	return ra
}

type OutcomeAssertion struct {
	Outcome Outcome
}

func NewOutcomeAssertion(o Outcome) *OutcomeAssertion {
	return &OutcomeAssertion{Outcome: o}
}

func (oa *OutcomeAssertion) AssertApplied(t *testing.T) *OutcomeAssertion {
	t.Helper()
	assert.True(t, oa.Outcome.Applied, "Expected transition to be applied, refusal: %v", oa.Outcome.Refusal)
	assert.NoError(t, oa.Outcome.Refusal)
	return oa
}

func (oa *OutcomeAssertion) AssertRefused(t *testing.T, expected error) *OutcomeAssertion {
	t.Helper()
	assert.False(t, oa.Outcome.Applied, "Expected transition to be refused")
	assert.True(t, errors.Is(oa.Outcome.Refusal, expected), "Expected refusal %v, got %v", expected, oa.Outcome.Refusal)
	assert.Equal(t, oa.Outcome.Before, oa.Outcome.After, "a refusal must not change the status")
	return oa
}

func (oa *OutcomeAssertion) AssertStatus(t *testing.T, before, after review.Status) *OutcomeAssertion {
	t.Helper()
	assert.Equal(t, before, oa.Outcome.Before)
	assert.Equal(t, after, oa.Outcome.After)
	return oa
}

func (oa *OutcomeAssertion) AssertAutoApproved(t *testing.T, expected bool) *OutcomeAssertion {
	t.Helper()
	assert.Equal(t, expected, oa.Outcome.AutoApproved)
	return oa
}

func (oa *OutcomeAssertion) AssertBypassed(t *testing.T, expected bool) *OutcomeAssertion {
	t.Helper()
	assert.Equal(t, expected, oa.Outcome.Bypassed)
	return oa
}
