package eventbus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrNilHandler       = errors.New("handler is nil")
)

// Handler owns one side-effect concern. Name must be unique per registry; it
// labels results, logs and metrics.
type Handler interface {
	Name() string
	Handle(ctx context.Context, e *event.Event) error
}

type handlerFunc struct {
	name string
	fn   func(ctx context.Context, e *event.Event) error
}

func (h handlerFunc) Name() string { return h.name }

func (h handlerFunc) Handle(ctx context.Context, e *event.Event) error { return h.fn(ctx, e) }

// HandlerFunc adapts a plain function to Handler.
func HandlerFunc(name string, fn func(ctx context.Context, e *event.Event) error) Handler {
	return handlerFunc{name: name, fn: fn}
}

// Registry maps every event type to its ordered handler list. Lookups are
// total: a known type without subscribers yields an empty list.
type Registry struct {
	mu       sync.RWMutex
	handlers map[event.Type][]Handler
}

func NewRegistry() *Registry {
	handlers := make(map[event.Type][]Handler, len(event.Types()))
	for _, t := range event.Types() {
		handlers[t] = nil
	}

	return &Registry{handlers: handlers}
}

// Subscribe appends h to the handler list of every given type. Nothing is
// registered if any type is unknown.
func (r *Registry) Subscribe(h Handler, types ...event.Type) error {
	if h == nil {
		return ErrNilHandler
	}
	for _, t := range types {
		if !t.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownEventType, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if slices.ContainsFunc(r.handlers[t], func(existing Handler) bool { return existing.Name() == h.Name() }) {
			continue
		}
		r.handlers[t] = append(r.handlers[t], h)
	}

	return nil
}

// Unsubscribe removes the handler called name from the given types, or from
// every type when none are given. It returns the number of removals.
func (r *Registry) Unsubscribe(name string, types ...event.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(types) == 0 {
		types = event.Types()
	}

	removed := 0
	for _, t := range types {
		before := len(r.handlers[t])
		r.handlers[t] = slices.DeleteFunc(r.handlers[t], func(h Handler) bool { return h.Name() == name })
		removed += before - len(r.handlers[t])
	}

	return removed
}

// Handlers returns a copy of the handler list for t in subscription order.
func (r *Registry) Handlers(t event.Type) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.handlers[t])
}
