package reviewhttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/internal/domain/registration"
	"gitlab.com/yecreg/yec-backend/internal/domain/valueobject/review"
	"gitlab.com/yecreg/yec-backend/internal/ports/http/middlewares"
	"gitlab.com/yecreg/yec-backend/pkg/ctxs"
	"gitlab.com/yecreg/yec-backend/pkg/errorx"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
	"gitlab.com/yecreg/yec-backend/pkg/httpx"
	"gitlab.com/yecreg/yec-backend/pkg/otelx"
	"gitlab.com/yecreg/yec-backend/pkg/sanitizex"
	"gitlab.com/yecreg/yec-backend/pkg/validationx"
)

var (
	tracer = otel.Tracer("yec/internal/ports/http/review")
	logger = otelslog.NewLogger("yec/internal/ports/http/review")
)

type RegistrationGetter interface {
	Get(ctx context.Context, registrationID string) (*registration.Registration, error)
}

// Events is the part of the event service the admin review routes use.
type Events interface {
	AdminRequestUpdate(
		ctx context.Context,
		reg event.RegistrationSnapshot,
		actorEmail string,
		dim review.Dimension,
		reason string,
		opts ...event.Option,
	) ([]eventbus.Result, error)
	AdminMarkPass(
		ctx context.Context,
		reg event.RegistrationSnapshot,
		actorEmail string,
		dim review.Dimension,
		opts ...event.Option,
	) ([]eventbus.Result, error)
	AdminApproved(
		ctx context.Context,
		reg event.RegistrationSnapshot,
		actorEmail string,
		opts ...event.Option,
	) ([]eventbus.Result, error)
	AdminRejected(
		ctx context.Context,
		reg event.RegistrationSnapshot,
		actorEmail, reason string,
		opts ...event.Option,
	) ([]eventbus.Result, error)
}

type HTTP struct {
	tracer        trace.Tracer
	logger        *slog.Logger
	registrations RegistrationGetter
	events        Events
	middleware    *middlewares.Middleware
	errhandler    *httpx.ErrorHandler
	policy        registration.ApprovalPolicy
}

type Args struct {
	Tracer        trace.Tracer
	Logger        *slog.Logger
	Registrations RegistrationGetter
	Events        Events
	Middleware    *middlewares.Middleware
	Errhandler    *httpx.ErrorHandler
	// ApprovalPolicy must match the one the status handler applies.
	ApprovalPolicy registration.ApprovalPolicy
}

func NewHTTP(args Args) *HTTP {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}
	if args.Middleware == nil {
		args.Middleware = middlewares.NewMiddleware(middlewares.Args{Errhandler: args.Errhandler})
	}

	return &HTTP{
		tracer:        args.Tracer,
		logger:        args.Logger,
		registrations: args.Registrations,
		events:        args.Events,
		middleware:    args.Middleware,
		errhandler:    args.Errhandler,
		policy:        args.ApprovalPolicy,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Route("/v1/admin/registrations/{registrationID}", func(r chi.Router) {
		r.Use(h.middleware.Admin)

		r.Post("/review/{dimension}/request-update", h.RequestUpdate)
		r.Post("/review/{dimension}/mark-pass", h.MarkPass)
		r.Post("/approve", h.Approve)
		r.Post("/reject", h.Reject)
	})
}

type RequestUpdateRequest struct {
	Reason string `json:"reason"`
}

func (r *RequestUpdateRequest) Sanitized() {
	r.Reason = sanitizex.CleanMultiline(r.Reason)
}

func (r *RequestUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, append([]validation.Rule{validation.Required}, validationx.ReasonRules...)...),
	)
}

func (h *HTTP) RequestUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "reviewhttp.HTTP.RequestUpdate"
	ctx, span := h.tracer.Start(r.Context(), op)
	defer span.End()

	var req RequestUpdateRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, errorx.NewMalformedJSON().WithCause(err), "failed to read json")
		return
	}
	req.Sanitized()
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	dim, err := dimensionParam(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid dimension")
		return
	}
	actor, reg, ok := h.loadEditable(ctx, w, r, span, dim, review.DimensionNeedsUpdate)
	if !ok {
		return
	}

	results, err := h.events.AdminRequestUpdate(ctx, reg.Snapshot(), actor.Email, dim, req.Reason,
		event.WithCorrelationID(correlationID(r)),
	)
	if err != nil {
		h.errhandler.HandleError(w, r, span, errorx.Wrap(err, op), "failed to emit request update")
		return
	}

	h.respond(w, r, reg.RegistrationID(), results)
}

func (h *HTTP) MarkPass(w http.ResponseWriter, r *http.Request) {
	const op = "reviewhttp.HTTP.MarkPass"
	ctx, span := h.tracer.Start(r.Context(), op)
	defer span.End()

	dim, err := dimensionParam(r)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid dimension")
		return
	}
	actor, reg, ok := h.loadEditable(ctx, w, r, span, dim, review.DimensionPassed)
	if !ok {
		return
	}

	results, err := h.events.AdminMarkPass(ctx, reg.Snapshot(), actor.Email, dim,
		event.WithCorrelationID(correlationID(r)),
	)
	if err != nil {
		h.errhandler.HandleError(w, r, span, errorx.Wrap(err, op), "failed to emit mark pass")
		return
	}

	h.respond(w, r, reg.RegistrationID(), results)
}

type ApproveRequest struct {
	// Override approves even when not every dimension has passed.
	Override bool `json:"override"`
}

func (h *HTTP) Approve(w http.ResponseWriter, r *http.Request) {
	const op = "reviewhttp.HTTP.Approve"
	ctx, span := h.tracer.Start(r.Context(), op)
	defer span.End()

	var req ApproveRequest
	if err := httpx.ReadOptionalJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, errorx.NewMalformedJSON().WithCause(err), "failed to read json")
		return
	}
	otelx.SetSpanAttrs(span, map[string]any{"approve.override": req.Override})

	actor, reg, ok := h.load(ctx, w, r, span)
	if !ok {
		return
	}
	if err := approvalPrecondition(reg, req.Override, h.policy); err != nil {
		h.errhandler.HandleError(w, r, span, err, "approval precondition failed")
		return
	}

	opts := []event.Option{event.WithCorrelationID(correlationID(r))}
	if req.Override {
		opts = append(opts, event.WithMetadata("override", "true"))
	}
	results, err := h.events.AdminApproved(ctx, reg.Snapshot(), actor.Email, opts...)
	if err != nil {
		h.errhandler.HandleError(w, r, span, errorx.Wrap(err, op), "failed to emit approval")
		return
	}

	h.respond(w, r, reg.RegistrationID(), results)
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Sanitized() {
	r.Reason = sanitizex.CleanMultiline(r.Reason)
}

func (r *RejectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, append([]validation.Rule{validation.Required}, validationx.ReasonRules...)...),
	)
}

func (h *HTTP) Reject(w http.ResponseWriter, r *http.Request) {
	const op = "reviewhttp.HTTP.Reject"
	ctx, span := h.tracer.Start(r.Context(), op)
	defer span.End()

	var req RejectRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, errorx.NewMalformedJSON().WithCause(err), "failed to read json")
		return
	}
	req.Sanitized()
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	actor, reg, ok := h.load(ctx, w, r, span)
	if !ok {
		return
	}
	if reg.Status() == review.StatusRejected {
		h.errhandler.HandleError(w, r, span, registration.ErrAlreadyRejected, "registration already rejected")
		return
	}

	results, err := h.events.AdminRejected(ctx, reg.Snapshot(), actor.Email, req.Reason,
		event.WithCorrelationID(correlationID(r)),
	)
	if err != nil {
		h.errhandler.HandleError(w, r, span, errorx.Wrap(err, op), "failed to emit rejection")
		return
	}

	h.respond(w, r, reg.RegistrationID(), results)
}

// load resolves the actor and the registration named in the path. On failure
// the error response is already written.
func (h *HTTP) load(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
) (*ctxs.Actor, *registration.Registration, bool) {
	actor, ok := ctxs.ActorFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "actor missing from context")
		return nil, nil, false
	}

	registrationID := sanitizex.CleanSingleLine(chi.URLParam(r, "registrationID"))
	if err := validation.Validate(registrationID, validation.Required, validation.Length(1, 64)); err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid registration id")
		return nil, nil, false
	}
	otelx.SetSpanAttrs(span, map[string]any{"registration.id": registrationID})

	reg, err := h.registrations.Get(ctx, registrationID)
	if err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get registration")
		return nil, nil, false
	}

	return actor, reg, true
}

// loadEditable is load plus the precondition for moving dim to the given
// status. A refused edit is answered here and never emitted.
func (h *HTTP) loadEditable(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
	dim review.Dimension,
	to review.DimensionStatus,
) (*ctxs.Actor, *registration.Registration, bool) {
	actor, reg, ok := h.load(ctx, w, r, span)
	if !ok {
		return nil, nil, false
	}
	if err := reg.CheckDimensionEdit(dim, to); err != nil {
		h.errhandler.HandleError(w, r, span, err, "dimension edit precondition failed")
		return nil, nil, false
	}
	return actor, reg, true
}

func approvalPrecondition(reg *registration.Registration, override bool, policy registration.ApprovalPolicy) error {
	checklist := reg.Checklist()
	switch {
	case registration.IsApproved(reg):
		return registration.ErrAlreadyApproved
	case checklist.AnyRejected():
		return registration.ErrApprovalBlocked
	case !checklist.AllPassed() && (!override || policy == registration.ApprovalStrict):
		return registration.ErrApprovalIncomplete
	}
	return nil
}

func dimensionParam(r *http.Request) (review.Dimension, error) {
	dim := review.Dimension(sanitizex.CleanSingleLine(chi.URLParam(r, "dimension")))
	if !dim.Valid() {
		return "", registration.ErrUnknownDimension
	}
	return dim, nil
}

// correlationID threads the chi request id through the emitted events.
func correlationID(r *http.Request) string {
	if id := r.Header.Get("X-Correlation-ID"); id != "" {
		return sanitizex.CleanSingleLine(id)
	}
	return middleware.GetReqID(r.Context())
}

type resultResponse struct {
	Handler    string `json:"handler"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func (h *HTTP) respond(w http.ResponseWriter, r *http.Request, registrationID string, results []eventbus.Result) {
	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		rr := resultResponse{
			Handler:    res.Handler,
			Success:    res.Success,
			DurationMS: res.Duration.Round(time.Millisecond).Milliseconds(),
		}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}
		out = append(out, rr)
	}

	if failed := eventbus.Failed(results); len(failed) > 0 {
		h.logger.WarnContext(r.Context(), "some event handlers failed",
			slog.String("registration.id", registrationID),
			slog.Int("failed", len(failed)),
		)
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{
		"registration_id": registrationID,
		"results":         out,
	})
}
