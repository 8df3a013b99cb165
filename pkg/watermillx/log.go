package watermillx

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"gitlab.com/yecreg/yec-backend/pkg/logging"
)

// SlogLogger adapts slog to watermill. Fields under sensitive keys are
// masked before they reach the handler.
type SlogLogger struct {
	logger   *slog.Logger
	minLevel slog.Level
}

func NewSlogLogger(logger *slog.Logger, minLevel slog.Level) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{
		logger:   logger,
		minLevel: minLevel,
	}
}

func (l *SlogLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.log(slog.LevelError, msg, fields, slog.Any("error", err))
}

func (l *SlogLogger) Info(msg string, fields watermill.LogFields) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *SlogLogger) Debug(msg string, fields watermill.LogFields) {
	l.log(slog.LevelDebug, msg, fields)
}

// Trace is logged at debug level, and only when the minimum level is below
// debug.
func (l *SlogLogger) Trace(msg string, fields watermill.LogFields) {
	if l.minLevel < slog.LevelDebug {
		l.log(slog.LevelDebug, msg, fields)
	}
}

func (l *SlogLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &SlogLogger{
		logger:   l.logger.With(fieldsToAttrs(fields)...),
		minLevel: l.minLevel,
	}
}

func (l *SlogLogger) log(level slog.Level, msg string, fields watermill.LogFields, extra ...slog.Attr) {
	if level < l.minLevel {
		return
	}
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, msg, fieldsToAttrs(fields, extra...)...)
}

func fieldsToAttrs(fields watermill.LogFields, extra ...slog.Attr) []any {
	attrs := make([]any, 0, len(fields)+len(extra))
	for k, v := range fields {
		if logging.IsSensitiveKey(k) {
			v = logging.RedactFields(map[string]any{k: v}).(map[string]any)[k]
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	for _, attr := range extra {
		attrs = append(attrs, attr)
	}
	return attrs
}
