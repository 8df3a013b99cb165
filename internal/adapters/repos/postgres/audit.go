package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
	"gitlab.com/yecreg/yec-backend/pkg/postgres"
)

type AuditRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewAuditRepo creates a new instance of AuditRepo.
//
//	WARNING; panics if pool is nil
func NewAuditRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *AuditRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &AuditRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

// Record appends entry to the audit log. An entry for an event id that is
// already recorded is ignored.
func (r *AuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	ctx, span := r.tracer.Start(ctx, "AuditRepo.Record",
		trace.WithAttributes(
			attribute.String("event.id", entry.EventID.String()),
			attribute.String("audit.action", entry.Action),
		),
	)
	defer span.End()

	dto := DomainToAuditEntryDTO(entry)
	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING;
	`

	res, err := postgres.Conn(ctx, r.pool).Exec(ctx, query,
		dto.EventID, dto.Action, dto.Resource, dto.ResourceID, dto.ActorRole, dto.ActorID,
		dto.Result, dto.CorrelationID, dto.Reason, dto.Meta, dto.OccurredAt,
	)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to insert audit entry")
		return err
	}
	if res.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "audit entry already recorded", slog.String("event.id", entry.EventID.String()))
	}

	return nil
}

// ListByCorrelation returns the entries sharing correlationID, oldest first.
func (r *AuditRepo) ListByCorrelation(ctx context.Context, correlationID string) ([]audit.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "AuditRepo.ListByCorrelation",
		trace.WithAttributes(attribute.String("correlation.id", correlationID)),
	)
	defer span.End()

	query := `SELECT ` + auditColumns + ` FROM audit_log WHERE correlation_id = $1 ORDER BY occurred_at, id;`

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, correlationID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list audit entries")
		return nil, err
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var dto AuditEntryDTO
		if err := rows.Scan(dto.ScanArgs()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to scan audit entry")
			return nil, err
		}
		entries = append(entries, AuditEntryToDomain(dto))
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate audit entries")
		return nil, err
	}

	return entries, nil
}
