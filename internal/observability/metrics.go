// Package observability exposes Prometheus metrics for identification, image
// analysis and report submission.
package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bay"

// Analysis outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

// Metrics holds the Prometheus counters and histograms for the application.
type Metrics struct {
	Identifications  *prometheus.CounterVec // labels: tier={direct,keyword,priority}
	ReportsSubmitted *prometheus.CounterVec // labels: type={manual,ai-only}

	// Image analysis metrics.
	AnalysisRequests *prometheus.CounterVec   // labels: provider, outcome={success,error,empty}
	AnalysisCache    *prometheus.CounterVec   // labels: result={hit,miss}
	AnalysisDuration *prometheus.HistogramVec // labels: provider

	registry *prometheus.Registry
}

// NewMetrics creates all metrics and registers them with reg. A nil reg gets a
// fresh private registry, which is also what WriteTextfile gathers from.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Identifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifications_total",
			Help:      "Jet type identifications by deciding tier.",
		}, []string{"tier"}),
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Spotting reports stored, by submission type.",
		}, []string{"type"}),
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Image analysis requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		AnalysisCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_total",
			Help:      "Image analysis cache lookups by result.",
		}, []string{"result"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Image analysis request duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"provider"}),
		registry: reg,
	}

	reg.MustRegister(
		m.Identifications,
		m.ReportsSubmitted,
		m.AnalysisRequests,
		m.AnalysisCache,
		m.AnalysisDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The Observe methods are no-ops on a nil *Metrics.

// ObserveIdentification counts one identification decided by tier.
func (m *Metrics) ObserveIdentification(tier string) {
	if m == nil {
		return
	}
	m.Identifications.WithLabelValues(tier).Inc()
}

// ObserveSubmission counts one stored report.
func (m *Metrics) ObserveSubmission(submissionType string) {
	if m == nil {
		return
	}
	m.ReportsSubmitted.WithLabelValues(submissionType).Inc()
}

// ObserveAnalysis records one completed analysis request.
func (m *Metrics) ObserveAnalysis(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisRequests.WithLabelValues(provider, outcome).Inc()
	m.AnalysisDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AnalysisCache.WithLabelValues(result).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
