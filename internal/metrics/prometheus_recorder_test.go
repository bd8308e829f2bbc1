package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration(StageBuild, 150*time.Millisecond)
	pr.IncStageResult(StageBuild, ResultSuccess)
	pr.IncStageResult(StageResolve, ResultFailed)
	pr.ObserveBuildDuration(2 * time.Second)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.ObserveGateWait(10 * time.Millisecond)
	pr.SetGateWaiting(2)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues(StageBuild, string(ResultSuccess))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.buildOutcome.WithLabelValues(string(BuildOutcomeSuccess))), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.gateWaiting), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeFailed)

	srv := httptest.NewServer(HTTPHandler(reg, nil))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `youmu_build_outcomes_total{outcome="failed"} 1`)
}

func TestHTTPHandler_CountsScrapes(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg)
	h := HTTPHandler(reg, nil)

	for range 2 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `promhttp_metric_handler_requests_total{code="200"} 2`)

	// A second handler on the same registry reuses the scrape counter.
	assert.NotPanics(t, func() { HTTPHandler(reg, nil) })
}

func TestHTTPHandler_ContinuesPastFailingCollector(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeSuccess)
	reg.MustRegister(failingCollector{})

	w := httptest.NewRecorder()
	HTTPHandler(reg, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `youmu_build_outcomes_total{outcome="success"} 1`)
}

type failingCollector struct{}

var failingDesc = prom.NewDesc("youmu_test_broken", "Always fails.", nil, nil)

func (failingCollector) Describe(ch chan<- *prom.Desc) { ch <- failingDesc }

func (failingCollector) Collect(ch chan<- prom.Metric) {
	ch <- prom.NewInvalidMetric(failingDesc, errors.New("collector unavailable"))
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration(StageFetch, time.Second)
		pr.IncBuildOutcome(BuildOutcomeCanceled)
		pr.SetGateWaiting(1)
	})
}
