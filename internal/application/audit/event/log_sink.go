package auditevent

import (
	"context"
	"log/slog"

	"gitlab.com/yecreg/yec-backend/internal/domain/audit"
)

// LogSink writes audit entries to a logger. It is used when no audit store
// is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = logger
	}
	return &LogSink{logger: l}
}

func (s *LogSink) Record(ctx context.Context, entry audit.Entry) error {
	s.logger.InfoContext(ctx, "audit",
		slog.String("audit.event_id", entry.EventID.String()),
		slog.String("audit.action", entry.Action),
		slog.String("audit.resource", entry.Resource),
		slog.String("audit.resource_id", entry.ResourceID),
		slog.String("audit.actor_role", entry.ActorRole.String()),
		slog.String("audit.actor_id", entry.ActorID),
		slog.String("audit.result", entry.Result.String()),
		slog.String("audit.correlation_id", entry.CorrelationID),
		slog.String("audit.reason", entry.Reason),
		slog.Any("audit.meta", entry.Meta),
	)
	return nil
}
