package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
)

var ErrHandlerPanic = errors.New("handler panicked")

// Transport runs the handlers of one event and reports one Result per
// handler. It must never fail as a whole.
type Transport interface {
	Enabled() bool
	Dispatch(ctx context.Context, e *event.Event, handlers []Handler) []Result
}

// ConcurrentTransport starts every handler at once and waits for all of them.
// A positive Limit caps how many run at the same time.
type ConcurrentTransport struct {
	Limit int
}

func NewConcurrentTransport(limit int) *ConcurrentTransport {
	return &ConcurrentTransport{Limit: limit}
}

func (t *ConcurrentTransport) Enabled() bool { return true }

func (t *ConcurrentTransport) Dispatch(ctx context.Context, e *event.Event, handlers []Handler) []Result {
	results := make([]Result, len(handlers))

	var g errgroup.Group
	if t != nil && t.Limit > 0 {
		g.SetLimit(t.Limit)
	}
	for i, h := range handlers {
		g.Go(func() error {
			results[i] = invoke(ctx, e, h)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// DisabledTransport drops every event. Ids of dropped events are not
// remembered, so they can be emitted again once dispatch is re-enabled.
type DisabledTransport struct{}

func (DisabledTransport) Enabled() bool { return false }

func (DisabledTransport) Dispatch(context.Context, *event.Event, []Handler) []Result { return nil }

func invoke(ctx context.Context, e *event.Event, h Handler) (res Result) {
	start := time.Now()
	res = Result{
		Handler:   h.Name(),
		EventID:   e.ID(),
		EventType: e.Type(),
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, h.Name(), r)
		}
		res.Duration = time.Since(start)
	}()

	if err := h.Handle(ctx, e); err != nil {
		res.Err = err
		return res
	}
	res.Success = true

	return res
}
