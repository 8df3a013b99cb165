package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
	"gitlab.com/yecreg/yec-backend/pkg/postgres"
)

type RegistrationRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewRegistrationRepo creates a new instance of RegistrationRepo.
// It also sets default tracer and logger if they are nil.
//
//	WARNING; panics if pool is nil
func NewRegistrationRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *RegistrationRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &RegistrationRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

func (r *RegistrationRepo) Get(ctx context.Context, registrationID string) (*registration.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepo.Get",
		trace.WithAttributes(attribute.String("registration.id", registrationID)),
	)
	defer span.End()

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE registration_id = $1;`

	var dto RegistrationDTO
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, registrationID).Scan(dto.ScanArgs()...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get registration")
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.NewNotFound().WithCause(err)
		}
		return nil, err
	}

	return RegistrationToDomain(dto), nil
}

// UpdateStatusAndChecklist writes the review fields of a registration and
// returns the stored row.
func (r *RegistrationRepo) UpdateStatusAndChecklist(
	ctx context.Context,
	registrationID string,
	upd registration.ReviewUpdate,
) (*registration.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepo.UpdateStatusAndChecklist",
		trace.WithAttributes(
			attribute.String("registration.id", registrationID),
			attribute.String("registration.status", upd.Status.String()),
		),
	)
	defer span.End()

	query := `
		UPDATE registrations
		SET status = $2, review_checklist = $3, update_reason = $4, submitted = $5, updated_at = NOW()
		WHERE registration_id = $1
		RETURNING ` + registrationColumns + `;`

	var dto RegistrationDTO
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query,
		registrationID, upd.Status.String(), upd.Checklist.Normalized(), upd.UpdateReason, upd.Submitted,
	).Scan(dto.ScanArgs()...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update registration")
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorx.NewNotFound().WithCause(err)
		}
		return nil, err
	}

	return RegistrationToDomain(dto), nil
}

// ListByIDs returns the registrations found for ids ordered by primary key.
// Unknown ids are skipped.
func (r *RegistrationRepo) ListByIDs(ctx context.Context, registrationIDs []string) ([]*registration.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepo.ListByIDs",
		trace.WithAttributes(attribute.Int("registration.count", len(registrationIDs))),
	)
	defer span.End()

	if len(registrationIDs) == 0 {
		return []*registration.Registration{}, nil
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE registration_id = ANY($1) ORDER BY id;`

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, registrationIDs)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list registrations")
		return nil, err
	}
	defer rows.Close()

	regs := make([]*registration.Registration, 0, len(registrationIDs))
	for rows.Next() {
		var dto RegistrationDTO
		if err := rows.Scan(dto.ScanArgs()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to scan registration")
			return nil, err
		}
		regs = append(regs, RegistrationToDomain(dto))
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate registrations")
		return nil, err
	}

	return regs, nil
}

// Save inserts reg or replaces every field of the row with the same
// registration id.
func (r *RegistrationRepo) Save(ctx context.Context, reg *registration.Registration) error {
	ctx, span := r.tracer.Start(ctx, "RegistrationRepo.Save")
	defer span.End()

	if reg == nil {
		otelx.RecordSpanError(span, ErrNilRegistration, "nil registration")
		return ErrNilRegistration
	}
	span.SetAttributes(attribute.String("registration.id", reg.RegistrationID()))

	dto := DomainToRegistrationDTO(reg)
	query := `
		INSERT INTO registrations (
			registration_id, status, review_checklist, update_reason, submitted,
			email, phone, first_name, last_name, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), COALESCE($11, NOW()))
		ON CONFLICT (registration_id) DO UPDATE SET
			status = EXCLUDED.status,
			review_checklist = EXCLUDED.review_checklist,
			update_reason = EXCLUDED.update_reason,
			submitted = EXCLUDED.submitted,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW();
	`

	return postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		res, err := tx.Exec(ctx, query,
			dto.RegistrationID, dto.Status, dto.Checklist.Normalized(), dto.UpdateReason, dto.Submitted,
			dto.Email, dto.Phone, dto.FirstName, dto.LastName,
			nullTime(dto.CreatedAt), nullTime(dto.UpdatedAt),
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to save registration")
			return err
		}
		if res.RowsAffected() == 0 {
			otelx.RecordSpanError(span, ErrNoRowsAffected, "no rows affected when saving registration")
			return fmt.Errorf("failed to save registration: %w", ErrNoRowsAffected)
		}
		return nil
	})
}
