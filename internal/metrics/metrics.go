// Package metrics exposes Prometheus counters for the door controller.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/garage-door/internal/door"
)

const namespace = "garage_door"

// Request results used as the "result" label.
const (
	ResultOK           = "ok"
	ResultUnauthorized = "unauthorized"
	ResultBusy         = "busy"
	ResultError        = "error"
	ResultCancelled    = "cancelled"
)

// Metrics holds the registered collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	pulses         prometheus.Counter
	authFailures   prometheus.Counter
	busy           prometheus.Counter
	hardwareErrors prometheus.Counter
	duration       *prometheus.HistogramVec
	state          *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests by endpoint and result.",
		}, []string{"endpoint", "result"}),
		pulses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_pulses_total",
			Help:      "Operate relay pulses sent.",
		}),
		authFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Requests with a missing or invalid key.",
		}),
		busy: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_rejections_total",
			Help:      "Requests rejected while another hardware sequence was running.",
		}),
		hardwareErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hardware_errors_total",
			Help:      "Failed GPIO reads or writes.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling authorized requests, including hardware waits.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
		}, []string{"endpoint"}),
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Last classified door state (1 for the current state, 0 otherwise).",
		}, []string{"state"}),
	}
}

// Request counts a finished request and observes its duration.
func (m *Metrics) Request(endpoint, result string, d time.Duration) {
	m.requests.WithLabelValues(endpoint, result).Inc()
	switch result {
	case ResultUnauthorized:
		m.authFailures.Inc()
		return
	case ResultBusy:
		m.busy.Inc()
	case ResultError:
		m.hardwareErrors.Inc()
	}
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Pulse counts a relay pulse.
func (m *Metrics) Pulse() {
	m.pulses.Inc()
}

// State records the most recent classification.
func (m *Metrics) State(s door.State) {
	for _, st := range []door.State{door.StateOpen, door.StateClosed, door.StateTransitional, door.StateFlashing} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(string(st)).Set(v)
	}
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
