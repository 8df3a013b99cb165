package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
)

type RegistrationRow struct {
	RegistrationID string
	Status         string
	Checklist      review.Checklist
	UpdateReason   *string
	Submitted      bool
	UpdatedAt      time.Time
}

type RegistrationAssertion struct {
	row RegistrationRow
	t   *testing.T
}

func (a *RegistrationAssertion) AssertStatus(expected review.Status) *RegistrationAssertion {
	a.t.Helper()
	assert.Equal(a.t, string(expected), a.row.Status, "unexpected registration status")
	return a
}

func (a *RegistrationAssertion) AssertDimension(d review.Dimension, expected review.DimensionStatus) *RegistrationAssertion {
	a.t.Helper()
	item, ok := a.row.Checklist.Get(d)
	assert.True(a.t, ok, "dimension %s missing from stored checklist", d)
	assert.Equal(a.t, expected, item.Status, "unexpected %s status", d)
	return a
}

func (a *RegistrationAssertion) AssertUpdateReason(expected string) *RegistrationAssertion {
	a.t.Helper()
	var actual string
	if a.row.UpdateReason != nil {
		actual = *a.row.UpdateReason
	}
	assert.Equal(a.t, expected, actual, "unexpected update reason")
	return a
}

type AuditAssertion struct {
	entries []audit.Entry
	t       *testing.T
}

func (a *AuditAssertion) AssertCount(expected int) *AuditAssertion {
	a.t.Helper()
	assert.Len(a.t, a.entries, expected, "unexpected audit entry count")
	return a
}

func (a *AuditAssertion) AssertActions(expected ...string) *AuditAssertion {
	a.t.Helper()
	actions := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(a.t, expected, actions, "unexpected audit actions")
	return a
}

func (a *AuditAssertion) AssertEntry(action string, actorRole role.Actor, reason string) *AuditAssertion {
	a.t.Helper()
	for _, e := range a.entries {
		if e.Action != action {
			continue
		}
		assert.Equal(a.t, actorRole, e.ActorRole, "unexpected actor role for %s", action)
		assert.Equal(a.t, reason, e.Reason, "unexpected reason for %s", action)
		assert.True(a.t, e.Succeeded(), "expected %s to be recorded as success", action)
		return a
	}
	assert.Failf(a.t, "audit entry not found", "no entry with action %s", action)
	return a
}
