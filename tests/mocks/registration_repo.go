package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
)

// RegistrationRepo is an in-memory registration store. It keeps snapshots so
// callers never share a *registration.Registration with it.
type RegistrationRepo struct {
	db      map[string]event.RegistrationSnapshot
	updates map[string]int
	failGet error
	failUpd error
	mu      sync.Mutex
}

func NewRegistrationRepo() *RegistrationRepo {
	return &RegistrationRepo{
		db:      make(map[string]event.RegistrationSnapshot),
		updates: make(map[string]int),
	}
}

func (r *RegistrationRepo) Get(ctx context.Context, registrationID string) (*registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failGet != nil {
		return nil, r.failGet
	}
	s, exists := r.db[registrationID]
	if !exists {
		return nil, errorx.NewNotFound()
	}
	return registration.FromSnapshot(s), nil
}

func (r *RegistrationRepo) UpdateStatusAndChecklist(
	ctx context.Context,
	registrationID string,
	upd registration.ReviewUpdate,
) (*registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpd != nil {
		return nil, r.failUpd
	}
	s, exists := r.db[registrationID]
	if !exists {
		return nil, errorx.NewNotFound()
	}

	s.Status = upd.Status
	s.Checklist = upd.Checklist
	s.UpdateReason = upd.UpdateReason
	s.Submitted = upd.Submitted
	r.db[registrationID] = s
	r.updates[registrationID]++

	return registration.FromSnapshot(s), nil
}

func (r *RegistrationRepo) ListByIDs(ctx context.Context, registrationIDs []string) ([]*registration.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failGet != nil {
		return nil, r.failGet
	}
	out := make([]*registration.Registration, 0, len(registrationIDs))
	for _, id := range registrationIDs {
		if s, exists := r.db[id]; exists {
			out = append(out, registration.FromSnapshot(s))
		}
	}
	return out, nil
}

func (r *RegistrationRepo) Save(ctx context.Context, reg *registration.Registration) error {
	if reg == nil {
		return errors.New("registration cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.db[reg.RegistrationID()] = reg.Snapshot()
	return nil
}

// FailGet makes Get and ListByIDs return err until called with nil.
func (r *RegistrationRepo) FailGet(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failGet = err
}

// FailUpdate makes UpdateStatusAndChecklist return err until called with nil.
func (r *RegistrationRepo) FailUpdate(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUpd = err
}

func (r *RegistrationRepo) SeedRegistration(t *testing.T, reg *registration.Registration) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.db[reg.RegistrationID()]; exists {
		t.Fatalf("registration %s already exists", reg.RegistrationID())
	}
	r.db[reg.RegistrationID()] = reg.Snapshot()
}

func (r *RegistrationRepo) Snapshot(t *testing.T, registrationID string) event.RegistrationSnapshot {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.db[registrationID]
	if !exists {
		t.Fatalf("expected registration %s to exist, but it does not", registrationID)
	}
	return s
}

func (r *RegistrationRepo) AssertRegistrationExists(t *testing.T, registrationID string) *registration.RegistrationAssertion {
	t.Helper()

	return registration.NewRegistrationAssertion(registration.FromSnapshot(r.Snapshot(t, registrationID)))
}

func (r *RegistrationRepo) AssertUpdateCount(t *testing.T, registrationID string, expected int) *RegistrationRepo {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	assert.Equal(t, expected, r.updates[registrationID], "unexpected store mutations for %s", registrationID)
	return r
}
