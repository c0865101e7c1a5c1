package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOptimization(t *testing.T) {
	before := testutil.ToFloat64(optimizations.WithLabelValues("updated"))
	beforeStatus := testutil.ToFloat64(productStatus.WithLabelValues("Competitive"))

	RecordOptimization("updated", "Competitive")
	RecordOptimization("no_data", "")

	assert.Equal(t, before+1, testutil.ToFloat64(optimizations.WithLabelValues("updated")))
	assert.Equal(t, beforeStatus+1, testutil.ToFloat64(productStatus.WithLabelValues("Competitive")))
}

func TestRecordRefresh(t *testing.T) {
	before := testutil.ToFloat64(quotesSimulated)
	RecordRefresh(20*time.Millisecond, 30)
	assert.Equal(t, before+30, testutil.ToFloat64(quotesSimulated))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `price_optimizer_http_requests_total{method="GET",route="unmatched",status="404"}`)
	assert.Contains(t, body, "go_goroutines")
}
