package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/ports/http/middlewares"
	reviewhttp "gitlab.com/yecreg/yec-backend/internal/ports/http/review"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/httpx"
)

// HealthCheck reports whether a dependency the service needs is reachable.
type HealthCheck func(ctx context.Context) error

type Port struct {
	review     *reviewhttp.HTTP
	middleware *middlewares.Middleware
	errhandler *httpx.ErrorHandler
	gatherer   prometheus.Gatherer
	health     HealthCheck
}

type Args struct {
	Registrations reviewhttp.RegistrationGetter
	Events        reviewhttp.Events
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	Health         HealthCheck
	ApprovalPolicy registration.ApprovalPolicy
}

func NewPort(args Args) *Port {
	errhandler := httpx.NewErrorHandler()
	mw := middlewares.NewMiddleware(middlewares.Args{Errhandler: errhandler})

	return &Port{
		review: reviewhttp.NewHTTP(reviewhttp.Args{
			Registrations: args.Registrations,
			Events:        args.Events,
			Middleware:     mw,
			Errhandler:     errhandler,
			ApprovalPolicy: args.ApprovalPolicy,
		}),
		middleware: mw,
		errhandler: errhandler,
		gatherer:   args.Gatherer,
		health:     args.Health,
	}
}

func (p *Port) Route(r chi.Router) chi.Router {
	if r == nil {
		r = chi.NewRouter()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.OTel)
	r.Use(p.middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, trace.SpanFromContext(r.Context()), errorx.NewNotFound(), "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, trace.SpanFromContext(r.Context()), errorx.NewMethodNotAllowed(), "method not allowed")
	})

	r.Get("/healthz", p.healthz)
	if p.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
	}

	p.review.Route(r)

	return r
}

func (p *Port) healthz(w http.ResponseWriter, r *http.Request) {
	if p.health != nil {
		if err := p.health(r.Context()); err != nil {
			p.errhandler.HandleError(w, r, trace.SpanFromContext(r.Context()), errorx.NewServiceUnavailable().WithCause(err), "health check failed")
			return
		}
	}
	httpx.Success(w, r, http.StatusOK, nil)
}
