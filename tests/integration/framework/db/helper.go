package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/adapters/repos/postgres"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
)

type Helper struct {
	pool         *pgxpool.Pool
	registration *postgres.RegistrationRepo
	audit        *postgres.AuditRepo
}

type Args struct {
	Pool         *pgxpool.Pool
	Registration *postgres.RegistrationRepo
	Audit        *postgres.AuditRepo
}

func NewHelper(args Args) *Helper {
	if args.Pool == nil {
		panic("pgxpool.Pool is required")
	}
	if args.Registration == nil {
		args.Registration = postgres.NewRegistrationRepo(args.Pool, nil, nil)
	}
	if args.Audit == nil {
		args.Audit = postgres.NewAuditRepo(args.Pool, nil, nil)
	}

	return &Helper{
		pool:         args.Pool,
		registration: args.Registration,
		audit:        args.Audit,
	}
}

func (h *Helper) QueryOne(t *testing.T, query string, args ...any) pgx.Row {
	t.Helper()
	return h.pool.QueryRow(context.Background(), query, args...)
}

func (h *Helper) Exec(t *testing.T, query string, args ...any) pgconn.CommandTag {
	t.Helper()

	tag, err := h.pool.Exec(context.Background(), query, args...)
	require.NoError(t, err)

	return tag
}

func (h *Helper) TruncateAll(t *testing.T) {
	t.Helper()

	tables := []string{
		"audit_log",
		"registrations",
	}

	ctx := context.Background()
	for _, table := range tables {
		_, err := h.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

func (h *Helper) SeedRegistration(t *testing.T, r *registration.Registration) {
	t.Helper()
	require.NoError(t, h.registration.Save(t.Context(), r))
}

func (h *Helper) RequireRegistration(t *testing.T, registrationID string) *registration.RegistrationAssertion {
	t.Helper()

	reg, err := h.registration.Get(t.Context(), registrationID)
	require.NoError(t, err, "registration not found: %s", registrationID)

	return registration.NewRegistrationAssertion(reg)
}

func (h *Helper) RequireRegistrationRow(t *testing.T, registrationID string) *RegistrationAssertion {
	t.Helper()

	var row RegistrationRow
	err := h.pool.QueryRow(context.Background(), `
		SELECT registration_id, status, review_checklist, update_reason, submitted, updated_at
		FROM registrations WHERE registration_id = $1`, registrationID,
	).Scan(&row.RegistrationID, &row.Status, &row.Checklist, &row.UpdateReason, &row.Submitted, &row.UpdatedAt)
	require.NoError(t, err, "registration row not found: %s", registrationID)

	return &RegistrationAssertion{row: row, t: t}
}

func (h *Helper) RequireAuditTrail(t *testing.T, correlationID string) *AuditAssertion {
	t.Helper()

	entries, err := h.audit.ListByCorrelation(t.Context(), correlationID)
	require.NoError(t, err)

	return &AuditAssertion{entries: entries, t: t}
}

func (h *Helper) RequireAuditCount(t *testing.T, expected int) {
	t.Helper()

	var count int
	err := h.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM audit_log").Scan(&count)

	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected audit entry count")
}
