package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentsum/pkg/models"
)

func TestObserveReport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveReport(models.Report{
		Status:       models.StatusSuccess,
		IncidentType: "Base de datos",
		Entities:     models.Entities{"ips": {"10.0.0.1", "10.0.0.2"}},
	}, 120*time.Millisecond)
	m.ObserveReport(models.Report{Status: models.StatusError, IncidentType: models.NotAvailable}, time.Millisecond)
	m.WriteError("file")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("success", "Base de datos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("error", "N/A")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entities.WithLabelValues("ips")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writeErrors.WithLabelValues("file")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReport(models.Report{}, time.Second)
		m.WriteError("http")
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveReport(models.Report{Status: models.StatusSuccess, IncidentType: "General"}, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `incidentsum_reports_total{incident_type="General",status="success"} 1`))
}
