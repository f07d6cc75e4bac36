package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.LoginAttempt(ResultSuccess)
	m.LoginAttempt(ResultSuccess)
	m.LoginAttempt(ResultFailure)
	m.RefreshAttempt(ResultFailure)
	m.SessionEvicted()

	assert.InDelta(t, 2, testutil.ToFloat64(m.logins.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.logins.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.evictions), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "GET /api/v1/products", http.StatusOK, 15*time.Millisecond)
	m.SessionEvicted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "shopapp_session_evictions_total 1")
	assert.Contains(t, string(body), `shopapp_http_requests_total{code="200",method="GET",route="GET /api/v1/products"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
