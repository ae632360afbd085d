// Package metrics exposes Prometheus collectors for upstream fetches and
// favorites activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HerbHall/shopfront/internal/fakestore"
	"github.com/HerbHall/shopfront/internal/favorites"
)

const namespace = "shopfront"

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
	favorites     prometheus.Gauge
}

var (
	_ fakestore.Observer = (*Metrics)(nil)
	_ favorites.Metrics  = (*Metrics)(nil)
)

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Store API requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Store API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "favorites",
			Name:      "mutations_total",
			Help:      "Committed favorites mutations by kind.",
		}, []string{"kind"}),
		favorites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "favorites",
			Name:      "count",
			Help:      "Number of favorited products.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal,
		m.fetchDuration,
		m.mutations,
		m.favorites,
	)
	return m
}

// ObserveFetch records one upstream request.
func (m *Metrics) ObserveFetch(op, outcome string, elapsed time.Duration) {
	m.fetchTotal.WithLabelValues(op, outcome).Inc()
	m.fetchDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// FavoriteMutation counts one committed favorites mutation.
func (m *Metrics) FavoriteMutation(kind string) {
	m.mutations.WithLabelValues(kind).Inc()
}

// FavoritesCount sets the favorites gauge.
func (m *Metrics) FavoritesCount(n int) {
	m.favorites.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
