// Package telemetry exposes Prometheus metrics for report generation.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"incidentsum/pkg/models"
)

// Metrics holds the report collectors. A nil *Metrics records nothing.
type Metrics struct {
	reports     *prometheus.CounterVec
	entities    *prometheus.CounterVec
	generate    prometheus.Histogram
	writeErrors *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incidentsum",
			Name:      "reports_total",
			Help:      "Reports generated, by status and incident type.",
		}, []string{"status", "incident_type"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incidentsum",
			Name:      "entities_total",
			Help:      "Entities extracted, by entity type.",
		}, []string{"type"}),
		generate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incidentsum",
			Name:      "generate_seconds",
			Help:      "Time spent summarizing and assembling one report.",
			Buckets:   []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incidentsum",
			Name:      "write_errors_total",
			Help:      "Failed sink writes, by sink.",
		}, []string{"sink"}),
	}
	reg.MustRegister(m.reports, m.entities, m.generate, m.writeErrors)
	return m
}

// ObserveReport records one generated report.
func (m *Metrics) ObserveReport(r models.Report, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(r.Status, r.IncidentType).Inc()
	for typ, values := range r.Entities {
		m.entities.WithLabelValues(typ).Add(float64(len(values)))
	}
	m.generate.Observe(elapsed.Seconds())
}

// WriteError records a failed sink write.
func (m *Metrics) WriteError(sink string) {
	if m == nil {
		return
	}
	m.writeErrors.WithLabelValues(sink).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
