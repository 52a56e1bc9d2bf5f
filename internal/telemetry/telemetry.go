// Package telemetry exposes Prometheus metrics for pipeline runs, imports
// and the analysis endpoint. All methods are safe to call on a nil *Metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedbacklens"

// Run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "lock_held"
)

// Metrics holds the feedbacklens collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	ItemsProcessed      prometheus.Counter
	ItemsSkipped        prometheus.Counter
	SentimentTotal      *prometheus.CounterVec
	IssuesTotal         *prometheus.CounterVec
	FeatureRequests     prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	ImportedTotal       *prometheus.CounterVec
	AnalyzeRequests     *prometheus.CounterVec
}

// New creates a Metrics set on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Processing runs by outcome",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a processing run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		ItemsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Feedback items that received a sentiment result",
		}),
		ItemsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "Feedback items skipped because their text was empty after cleaning",
		}),
		SentimentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_total",
			Help:      "Sentiment results by label",
		}, []string{"label"}),
		IssuesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Detected issues by category",
		}, []string{"category"}),
		FeatureRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_requests_total",
			Help:      "Detected feature requests",
		}),
		PersistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed batch writes by step",
		}, []string{"step"}),
		ImportedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_total",
			Help:      "Feedback items imported by source kind",
		}, []string{"source"}),
		AnalyzeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_requests_total",
			Help:      "Single-text analysis requests by method",
		}, []string{"method"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRun records the outcome and duration of a processing run.
func (m *Metrics) RecordRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// RecordSentiment counts one sentiment result.
func (m *Metrics) RecordSentiment(label string) {
	if m == nil {
		return
	}
	m.ItemsProcessed.Inc()
	m.SentimentTotal.WithLabelValues(label).Inc()
}

// RecordSkipped counts items skipped for empty text.
func (m *Metrics) RecordSkipped(n int) {
	if m == nil {
		return
	}
	m.ItemsSkipped.Add(float64(n))
}

// RecordIssue counts one detected issue.
func (m *Metrics) RecordIssue(category string) {
	if m == nil {
		return
	}
	m.IssuesTotal.WithLabelValues(category).Inc()
}

// RecordFeatureRequests counts detected feature requests.
func (m *Metrics) RecordFeatureRequests(n int) {
	if m == nil {
		return
	}
	m.FeatureRequests.Add(float64(n))
}

// RecordPersistenceFailure counts a failed batch write.
func (m *Metrics) RecordPersistenceFailure(step string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.WithLabelValues(step).Inc()
}

// RecordImported counts imported items for a source kind.
func (m *Metrics) RecordImported(source string, n int) {
	if m == nil {
		return
	}
	m.ImportedTotal.WithLabelValues(source).Add(float64(n))
}

// RecordAnalyzeRequest counts a single-text analysis by method.
func (m *Metrics) RecordAnalyzeRequest(method string) {
	if m == nil {
		return
	}
	m.AnalyzeRequests.WithLabelValues(method).Inc()
}
