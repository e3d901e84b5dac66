package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RunFinished(t *testing.T) {
	m := New()
	m.RunFinished("acme", "active", 3, 2*time.Second)
	m.RunFinished("acme", "error", 0, time.Second)
	m.RunFinished("acme", "active", 1, time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.runs.WithLabelValues("acme", "active")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("acme", "error")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestMetrics_FileProcessed(t *testing.T) {
	m := New()
	m.FileProcessed("acme", true)
	m.FileProcessed("acme", true)
	m.FileProcessed("acme", false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.filesHandled.WithLabelValues("acme", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.filesHandled.WithLabelValues("acme", "false")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.FileProcessed("acme", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ingestd_files_total{company="acme",ok="true"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
