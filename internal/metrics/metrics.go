// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge

	LeadMoves         *prometheus.CounterVec
	LeadsCreated      *prometheus.CounterVec
	BoardsProvisioned *prometheus.CounterVec
	DomainErrors      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also exposes the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of in-flight HTTP requests",
			},
		),

		LeadMoves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_lead_moves_total",
				Help: "Committed lead moves by view and roles",
			},
			[]string{"view", "from", "to"},
		),
		LeadsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_leads_created_total",
				Help: "Leads created directly in a board, by board type",
			},
			[]string{"board_type"},
		),
		BoardsProvisioned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_boards_provisioned_total",
				Help: "Boards created automatically, by kind",
			},
			[]string{"kind"},
		),
		DomainErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_errors_total",
				Help: "Errors returned by the kanban services, by kind",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordMove counts a committed move
func (m *Metrics) RecordMove(view, from, to string) {
	m.LeadMoves.WithLabelValues(view, from, to).Inc()
}

// RecordLeadCreated counts a lead created in a board
func (m *Metrics) RecordLeadCreated(boardType string) {
	m.LeadsCreated.WithLabelValues(boardType).Inc()
}

// RecordProvisioned counts automatically created boards
func (m *Metrics) RecordProvisioned(kind string, n int) {
	m.BoardsProvisioned.WithLabelValues(kind).Add(float64(n))
}

// RecordError counts a domain error by kind
func (m *Metrics) RecordError(kind string) {
	m.DomainErrors.WithLabelValues(kind).Inc()
}
