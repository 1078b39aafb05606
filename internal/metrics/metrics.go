package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results recorded for submissions and syncs
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the collectors of the order service on a private registry
type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted *prometheus.CounterVec
	MenuSyncs       *prometheus.CounterVec
	CatalogDishes   prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "orders_submitted_total",
			Help:      "Order submissions by result.",
		}, []string{"result"}),
		MenuSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restaurant",
			Name:      "menu_syncs_total",
			Help:      "Menu synchronizations by result.",
		}, []string{"result"}),
		CatalogDishes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "restaurant",
			Name:      "catalog_dishes",
			Help:      "Dishes in the active catalog after the last sync.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restaurant",
			Name:      "request_duration_seconds",
			Help:      "Request handling time by transport and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrdersSubmitted,
		m.MenuSyncs,
		m.CatalogDishes,
		m.RequestDuration,
	)
	return m
}

// ObserveRequest records the time since start
func (m *Metrics) ObserveRequest(transport, method string, start time.Time) {
	m.RequestDuration.WithLabelValues(transport, method).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
