package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/durafsm/pkg/domain"
)

// Metrics records machine activity as Prometheus series.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	Ignored       *prometheus.CounterVec
	EntryErrors   *prometheus.CounterVec
	EntryDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "durafsm_transitions_total",
				Help: "Total number of persisted transitions",
			},
			[]string{"machine", "event", "from", "to"},
		),
		Ignored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "durafsm_ignored_events_total",
				Help: "Total number of events with no handler in the current state",
			},
			[]string{"machine", "event", "state"},
		),
		EntryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "durafsm_entry_errors_total",
				Help: "Total number of failed entry functions",
			},
			[]string{"machine", "state", "handled"},
		),
		EntryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "durafsm_entry_duration_seconds",
				Help:    "Duration of entry function executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"machine", "state"},
		),
	}

	for _, c := range []prometheus.Collector{m.Transitions, m.Ignored, m.EntryErrors, m.EntryDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.Machine, e.Event, e.From, e.To).Inc()
			if e.Entry > 0 {
				m.EntryDuration.WithLabelValues(e.Machine, e.Target).Observe(e.Entry.Seconds())
			}
		},
		OnIgnored: func(ctx context.Context, e *domain.IgnoredEvent) {
			m.Ignored.WithLabelValues(e.Machine, e.Event, e.State).Inc()
		},
		OnEntryError: func(ctx context.Context, e *domain.EntryErrorEvent) {
			m.EntryErrors.WithLabelValues(e.Machine, e.State, strconv.FormatBool(e.Handled)).Inc()
		},
	}
}
