package mail

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/notify"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
)

var logger = otelslog.NewLogger("yec/adapters/services/mail")

// LogSender writes emails to the log instead of sending them. It is the
// email deliverer outside production.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(l *slog.Logger) *LogSender {
	if l == nil {
		l = logger
	}
	return &LogSender{logger: l}
}

func (s *LogSender) Send(ctx context.Context, env notify.Envelope) error {
	s.logger.InfoContext(ctx, "email",
		slog.String("to", logging.RedactEmail(env.Recipient)),
		slog.String("subject", env.Message.Subject),
		slog.String("event.id", env.Message.EventID.String()),
		slog.String("registration.id", env.Message.RegistrationID),
		slog.Int("body.length", len(env.Message.Body)),
	)
	return nil
}
