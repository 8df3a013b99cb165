package mocks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
	"gitlab.com/yecreg/yec-backend/pkg/eventbus"
)

// EventRepo records emitted events. Set Next to forward them, e.g. to a real
// bus.
type EventRepo struct {
	Next     func(ctx context.Context, e *event.Event) []eventbus.Result
	events   []*event.Event
	eventsMu sync.Mutex
	eventCh  chan *event.Event
}

func NewEventRepo() *EventRepo {
	return &EventRepo{
		events:  []*event.Event{},
		eventCh: make(chan *event.Event, 100),
	}
}

func (r *EventRepo) Emit(ctx context.Context, e *event.Event) []eventbus.Result {
	r.appendEvents(e)
	if r.Next != nil {
		return r.Next(ctx, e)
	}
	return []eventbus.Result{}
}

func (r *EventRepo) EventChannel() <-chan *event.Event {
	return r.eventCh
}

func (r *EventRepo) Events() []*event.Event {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	eventsCopy := make([]*event.Event, len(r.events))
	copy(eventsCopy, r.events)
	return eventsCopy
}

func (r *EventRepo) EventsOfType(t event.Type) []*event.Event {
	var out []*event.Event
	for _, e := range r.Events() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *EventRepo) AssertEventCount(t *testing.T, expectedCount int) *EventRepo {
	t.Helper()

	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	if len(r.events) != expectedCount {
		t.Errorf("expected %d events, but got %d", expectedCount, len(r.events))
	}

	return r
}

func (r *EventRepo) AssertEventNotExists(t *testing.T, typ event.Type) *EventRepo {
	t.Helper()

	assert.Empty(t, r.EventsOfType(typ), "expected no %s events", typ)
	return r
}

func (r *EventRepo) appendEvents(events ...*event.Event) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	for _, e := range events {
		r.events = append(r.events, e)
		select {
		case r.eventCh <- e:
		default:
		}
	}
}

// RequireEventExists returns the payload of the first recorded event of type T.
func RequireEventExists[T event.Payload](t *testing.T, r *EventRepo) (*event.Event, T) {
	t.Helper()

	for _, e := range r.Events() {
		if p, ok := e.Payload().(T); ok {
			require.NotEmpty(t, e.Header(), "event header should not be empty")
			return e, p
		}
	}

	var zero T
	t.Fatalf("event %T not found in repository", zero)
	return nil, zero
}
