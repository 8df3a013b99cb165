package logging

import (
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"gitlab.com/yecreg/yec-backend/pkg/env"
)

// Setup builds the process logger: JSON to stdout at the mode's level, plus
// the OpenTelemetry log bridge.
func Setup(mode env.Mode) (*slog.Logger, func()) {
	return setup(os.Stdout, mode)
}

func setup(w io.Writer, mode env.Mode) (*slog.Logger, func()) {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: mode.SlogLevel(),
	})
	otelHandler := otelslog.NewHandler("yec")

	logger := slog.New(fanout{jsonHandler, otelHandler}).With(slog.String("mode", mode.String()))

	return logger, func() {}
}
