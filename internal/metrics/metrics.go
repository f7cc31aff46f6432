// Package metrics exposes the poll cycle counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Metrics holds the collectors updated by the poller.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	pollCycles    *prometheus.CounterVec
	eventsFetched prometheus.Counter
	matches       prometheus.Counter
	notifications *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// New creates the collectors on a private registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.pollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakealert",
		Name:      "poll_cycles_total",
		Help:      "Number of poll cycles by result",
	}, []string{"result"})
	m.eventsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quakealert",
		Name:      "events_fetched_total",
		Help:      "Number of events read from the feed",
	})
	m.matches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quakealert",
		Name:      "matches_total",
		Help:      "Number of user/event matches found",
	})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quakealert",
		Name:      "notifications_total",
		Help:      "Number of push notifications by result",
	}, []string{"result"})
	m.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quakealert",
		Name:      "poll_cycle_duration_seconds",
		Help:      "Time spent in a poll cycle",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(
		m.pollCycles, m.eventsFetched, m.matches,
		m.notifications, m.cycleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CycleFinished records one poll cycle.
func (m *Metrics) CycleFinished(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.pollCycles.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		m.cycleDuration.Observe(took.Seconds())
	}
}

// EventsFetched adds n to the fetched events counter.
func (m *Metrics) EventsFetched(n int) {
	if m == nil {
		return
	}
	m.eventsFetched.Add(float64(n))
}

// Matched counts one match.
func (m *Metrics) Matched() {
	if m == nil {
		return
	}
	m.matches.Inc()
}

// Notification counts one dispatch attempt.
func (m *Metrics) Notification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notifications.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.notifications.WithLabelValues(ResultSuccess).Inc()
}
