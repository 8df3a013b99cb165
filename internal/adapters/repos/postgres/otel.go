package postgres

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("yec/internal/adapters/repos/postgres")
	logger = otelslog.NewLogger("yec/internal/adapters/repos/postgres")
)
