package production

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/comalice/tickfsm/internal/core"
	"github.com/comalice/tickfsm/internal/primitives"
)

const namespace = "tickfsm"

// Metrics is a core.Observer exporting Prometheus metrics.
type Metrics struct {
	events     *prometheus.CounterVec
	processing *prometheus.HistogramVec
	ticks      *prometheus.HistogramVec
}

// NewMetrics creates unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Count of events by machine, event ID and outcome.",
			},
			[]string{"machine", "event", "outcome"},
		),
		processing: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_processing_seconds",
				Help:      "Time spent handling one event on the consumer goroutine.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"machine"},
		),
		ticks: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "state_function_seconds",
				Help:      "Time spent in the periodic function of the current state.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"machine"},
		),
	}
}

// Register registers all collectors, reporting every failure.
func (m *Metrics) Register(r prometheus.Registerer) error {
	var errs error
	for _, c := range []prometheus.Collector{m.events, m.processing, m.ticks} {
		errs = multierr.Append(errs, r.Register(c))
	}
	return errs
}

func (m *Metrics) ObserveEvent(machine string, id primitives.EventID, outcome core.Outcome) {
	m.events.WithLabelValues(machine, id.String(), string(outcome)).Inc()
}

func (m *Metrics) ObserveProcessing(machine string, d time.Duration) {
	m.processing.WithLabelValues(machine).Observe(d.Seconds())
}

func (m *Metrics) ObserveTick(machine string, d time.Duration) {
	m.ticks.WithLabelValues(machine).Observe(d.Seconds())
}
