package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPull_CountsBySourceAndResult(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordPull("acuity", PullResultCacheHit)
	m.RecordPull("acuity", PullResultCacheHit)
	m.RecordPull("square", PullResultError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pullsTotal.WithLabelValues("acuity", PullResultCacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pullsTotal.WithLabelValues("square", PullResultError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pullsTotal.WithLabelValues("square", PullResultFetched)))
}

func TestRecordFetch_AddsSlots(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordFetch("acuity", 300*time.Millisecond, 12)
	m.RecordFetch("acuity", 100*time.Millisecond, 3)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.slotsFetched.WithLabelValues("acuity")))
}

func TestHandler_ExposesAvailabilityMetrics(t *testing.T) {
	m := NewMetricsCollector()
	m.RecordPull("acuity", PullResultFetched)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `availability_pulls_total{result="fetched",source="acuity"} 1`))
}
