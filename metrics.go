package routekit

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics about dispatches.
type Metrics struct {
	updatesTotal     *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	handlerRuns      *prometheus.CounterVec
	handlerDuration  *prometheus.HistogramVec
}

// Dispatch outcomes used as the "outcome" label.
const (
	outcomeHandled   = "handled"
	outcomeUnhandled = "unhandled"
	outcomeFailed    = "failed"
)

// NewMetrics creates the collectors and registers them with registerer. A nil
// registerer means prometheus.DefaultRegisterer. Collectors that are already
// registered are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		updatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routekit",
			Subsystem: "dispatcher",
			Name:      "updates_total",
			Help:      "Updates dispatched, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routekit",
			Subsystem: "dispatcher",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching one update through the router tree.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		handlerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routekit",
			Subsystem: "handler",
			Name:      "runs_total",
			Help:      "Handler callback invocations, by router, handler and result.",
		}, []string{"router", "handler", "result"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routekit",
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Handler callback latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"router", "handler"}),
	}

	var err error
	if m.updatesTotal, err = register(registerer, m.updatesTotal); err != nil {
		return nil, err
	}
	if m.dispatchDuration, err = register(registerer, m.dispatchDuration); err != nil {
		return nil, err
	}
	if m.handlerRuns, err = register(registerer, m.handlerRuns); err != nil {
		return nil, err
	}
	if m.handlerDuration, err = register(registerer, m.handlerDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// WithMetrics records dispatch and handler metrics through hooks.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		if m == nil {
			return
		}
		WithOnHandler(m.observeHandler)(d)
		WithOnHandled(func(_ context.Context, ev *Event, duration time.Duration) {
			m.observeDispatch(ev.Kind(), outcomeHandled, duration)
		})(d)
		WithOnFailure(func(_ context.Context, ev *Event, _ error, duration time.Duration) {
			m.observeDispatch(ev.Kind(), outcomeFailed, duration)
		})(d)
		WithOnUnhandled(func(_ context.Context, ev *Event) error {
			m.updatesTotal.WithLabelValues(ev.Kind().String(), outcomeUnhandled).Inc()
			return nil
		})(d)
	}
}

func (m *Metrics) observeDispatch(kind Kind, outcome string, duration time.Duration) {
	m.updatesTotal.WithLabelValues(kind.String(), outcome).Inc()
	m.dispatchDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
}

func (m *Metrics) observeHandler(_ context.Context, _ *Event, h *Handler, err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.handlerRuns.WithLabelValues(h.router.name, h.name, result).Inc()
	m.handlerDuration.WithLabelValues(h.router.name, h.name).Observe(duration.Seconds())
}
