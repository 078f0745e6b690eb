package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveIdentification("direct")
	m.ObserveIdentification("direct")
	m.ObserveIdentification("priority")
	m.ObserveSubmission("manual")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObserveAnalysis("gemini", OutcomeSuccess, 1200*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Identifications.WithLabelValues("direct")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Identifications.WithLabelValues("priority")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportsSubmitted.WithLabelValues("manual")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnalysisCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AnalysisCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnalysisRequests.WithLabelValues("gemini", OutcomeSuccess)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisDuration))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetricsForTesting()
		NewMetricsForTesting()
		NewMetrics(nil)
	})
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveIdentification("keyword")

	path := filepath.Join(t.TempDir(), "nested", "bay.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bay_identifications_total{tier="keyword"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIdentification("direct")
		m.ObserveSubmission("manual")
		m.ObserveCache(true)
		m.ObserveAnalysis("openai", OutcomeError, time.Second)
	})
}
