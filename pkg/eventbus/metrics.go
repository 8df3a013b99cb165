package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitlab.com/yecreg/yec-backend/internal/domain/event"
)

type SkipReason string

const (
	SkipDuplicate  SkipReason = "duplicate"
	SkipDisabled   SkipReason = "disabled"
	SkipNoHandlers SkipReason = "no_handlers"
	SkipNilEvent   SkipReason = "nil_event"
)

// Hooks observe the bus. Implementations must be safe for concurrent use.
type Hooks interface {
	OnEmit(e *event.Event, handlers int)
	OnSkip(e *event.Event, reason SkipReason)
	OnHandled(r Result)
}

type NopHooks struct{}

func (NopHooks) OnEmit(*event.Event, int)        {}
func (NopHooks) OnSkip(*event.Event, SkipReason) {}
func (NopHooks) OnHandled(Result)                {}

// Metrics exports bus activity to Prometheus.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Skipped         *prometheus.CounterVec
	HandlerResults  *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
}

// NewMetrics registers the bus collectors on reg. Pass a fresh registry in
// tests; prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yec_eventbus_emitted_total",
			Help: "Events dispatched to at least one handler, by event type",
		}, []string{"event_type"}),

		Skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yec_eventbus_skipped_total",
			Help: "Events not dispatched, by reason",
		}, []string{"reason"}),

		HandlerResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yec_eventbus_handler_results_total",
			Help: "Handler invocations by handler and result",
		}, []string{"handler", "result"}),

		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yec_eventbus_handler_duration_seconds",
			Help:    "Duration of handler invocations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"handler"}),
	}
}

func (m *Metrics) OnEmit(e *event.Event, _ int) {
	if m != nil {
		m.Emitted.WithLabelValues(e.Type().String()).Inc()
	}
}

func (m *Metrics) OnSkip(_ *event.Event, reason SkipReason) {
	if m != nil {
		m.Skipped.WithLabelValues(string(reason)).Inc()
	}
}

func (m *Metrics) OnHandled(r Result) {
	if m == nil {
		return
	}
	result := "success"
	if !r.Success {
		result = "failure"
	}
	m.HandlerResults.WithLabelValues(r.Handler, result).Inc()
	m.HandlerDuration.WithLabelValues(r.Handler).Observe(r.Duration.Seconds())
}
