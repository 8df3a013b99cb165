package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
)

var (
	tracer = otel.Tracer("yec/pkg/eventbus")
	logger = otelslog.NewLogger("yec/pkg/eventbus")
)

// Result is the outcome of one handler for one event.
type Result struct {
	Handler   string        `json:"handler"`
	EventID   uuid.UUID     `json:"event_id"`
	EventType event.Type    `json:"event_type"`
	Success   bool          `json:"success"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Bus dispatches each event id at most once per process lifetime (subject to
// cache eviction) to every handler subscribed to its type.
type Bus struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	registry  *Registry
	cache     Cache
	transport Transport
	hooks     Hooks

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

type Args struct {
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Registry  *Registry
	Cache     Cache
	Transport Transport
	Hooks     Hooks
}

func New(args Args) *Bus {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Registry == nil {
		args.Registry = NewRegistry()
	}
	if args.Cache == nil {
		args.Cache = NewProcessedSet(DefaultCacheSize)
	}
	if args.Transport == nil {
		args.Transport = NewConcurrentTransport(0)
	}
	if args.Hooks == nil {
		args.Hooks = NopHooks{}
	}

	return &Bus{
		tracer:    args.Tracer,
		logger:    args.Logger,
		registry:  args.Registry,
		cache:     args.Cache,
		transport: args.Transport,
		hooks:     args.Hooks,
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

func (b *Bus) Registry() *Registry {
	return b.registry
}

func (b *Bus) Subscribe(h Handler, types ...event.Type) error {
	return b.registry.Subscribe(h, types...)
}

// Emit runs every handler subscribed to e's type and returns one Result per
// handler. It never fails: an already processed id, a disabled transport or a
// type without subscribers yields an empty list. Handlers run with a context
// that is not cancelled when ctx is.
func (b *Bus) Emit(ctx context.Context, e *event.Event) []Result {
	if e == nil {
		b.hooks.OnSkip(e, SkipNilEvent)
		b.logger.WarnContext(ctx, "nil event emitted")
		return []Result{}
	}

	l := b.logger.With(e.LogAttrs()...)
	ctx, span := b.tracer.Start(
		ctx,
		"eventbus.Bus.Emit",
		trace.WithLinks(trace.LinkFromContext(e.Extract())),
		trace.WithAttributes(e.SpanAttributes()...),
	)
	defer span.End()

	handlers, reason, ok := b.claim(e)
	if !ok {
		b.hooks.OnSkip(e, reason)
		span.SetAttributes(attribute.String("eventbus.skipped", string(reason)))
		if reason == SkipDuplicate {
			l.DebugContext(ctx, "event already processed, skipping")
		} else {
			l.InfoContext(ctx, "event not dispatched", slog.String("reason", string(reason)))
		}
		return []Result{}
	}

	b.hooks.OnEmit(e, len(handlers))
	span.SetAttributes(attribute.Int("eventbus.handlers", len(handlers)))

	results := b.transport.Dispatch(context.WithoutCancel(ctx), e, handlers)
	for _, r := range results {
		b.hooks.OnHandled(r)
		if !r.Success {
			l.ErrorContext(ctx, "event handler failed",
				slog.String("handler", r.Handler),
				slog.Duration("duration", r.Duration),
				slog.Any("error", r.Err),
			)
		}
	}

	b.release(e.ID())

	if failed := len(Failed(results)); failed > 0 {
		span.SetAttributes(attribute.Int("eventbus.failed", failed))
	}

	return results
}

// claim decides whether e is dispatched and marks it in flight. Concurrent
// emits of the same id while it is in flight are treated as duplicates.
func (b *Bus) claim(e *event.Event) ([]Handler, SkipReason, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := e.ID()
	if _, busy := b.inflight[id]; busy || b.cache.Contains(id) {
		return nil, SkipDuplicate, false
	}
	if !b.transport.Enabled() {
		return nil, SkipDisabled, false
	}
	handlers := b.registry.Handlers(e.Type())
	if len(handlers) == 0 {
		return nil, SkipNoHandlers, false
	}

	b.inflight[id] = struct{}{}
	return handlers, "", true
}

func (b *Bus) release(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Add(id)
	delete(b.inflight, id)
}
