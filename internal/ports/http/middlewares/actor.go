package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/role"
	"gitlab.com/yecreg/yec-backend/pkg/ctxs"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/httpx"
	"gitlab.com/yecreg/yec-backend/pkg/logging"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
	"gitlab.com/yecreg/yec-backend/pkg/sanitizex"
	"gitlab.com/yecreg/yec-backend/pkg/validationx"
)

// ActorEmailHeader carries the reviewer identity. The upstream auth proxy
// sets it after authenticating the admin.
const ActorEmailHeader = "X-Actor-Email"

var (
	tracer = otel.Tracer("yec/internal/ports/http/middlewares")
	logger = otelslog.NewLogger("yec/internal/ports/http/middlewares")
)

type Middleware struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Errhandler *httpx.ErrorHandler
}

func NewMiddleware(args Args) *Middleware {
	m := &Middleware{
		tracer:     args.Tracer,
		logger:     args.Logger,
		errhandler: args.Errhandler,
	}

	if m.tracer == nil {
		m.tracer = tracer
	}
	if m.logger == nil {
		m.logger = logger
	}
	if m.errhandler == nil {
		m.errhandler = httpx.NewErrorHandler()
	}
	return m
}

// Admin puts the admin named by ActorEmailHeader into the request context
// and rejects requests without a valid one.
func (m *Middleware) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "AdminMiddleware")
		defer span.End()

		email := sanitizex.CleanSingleLine(r.Header.Get(ActorEmailHeader))
		if email == "" {
			m.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "missing actor email header")
			return
		}
		if err := validation.Validate(email, validationx.ActorEmailRules...); err != nil {
			m.errhandler.HandleError(w, r, span, errorx.NewUnauthorized().WithCause(err), "invalid actor email header")
			return
		}
		otelx.SetSpanAttrs(span, map[string]any{"actor.email": logging.RedactEmail(email)})

		ctx = ctxs.WithActor(ctx, &ctxs.Actor{Email: email, Role: role.Admin})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
