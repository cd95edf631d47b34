// Package telemetry provides OpenTelemetry instrumentation for the
// casenote classifier. It exports Prometheus metrics and provides
// tracing capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "casenote-classifier"

// Metrics holds all classifier Prometheus metrics.
type Metrics struct {
	// Processing metrics
	EntriesProcessed   *prometheus.CounterVec
	EntriesFailed      *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	BatchSize          prometheus.Histogram

	// Matching metrics
	MatchDuration        prometheus.Histogram
	KeywordsEvaluated    prometheus.Counter
	CategoriesMatched    *prometheus.CounterVec
	NegationSuppressions prometheus.Counter
	IncidentsMatched     *prometheus.CounterVec
	PrescanSkips         prometheus.Counter

	// Backpressure metrics
	QueueDepth    prometheus.Gauge
	ActiveWorkers prometheus.Gauge
	ThrottleCount prometheus.Counter

	// History metrics
	HistoryWrites       prometheus.Counter
	HistoryWriteFailure prometheus.Counter
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initProcessingMetrics(m)
	initMatchingMetrics(m)
	initBackpressureMetrics(m)
	initHistoryMetrics(m)
	return m
}

func initProcessingMetrics(m *Metrics) {
	m.EntriesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casenote_entries_processed_total",
		Help: "Total note entries successfully categorized",
	}, []string{"domain"})

	m.EntriesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casenote_entries_failed_total",
		Help: "Total note entries that failed categorization",
	}, []string{"domain", "error_code"})

	m.ProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casenote_processing_duration_seconds",
		Help:    "Time to categorize a single note entry",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"domain"})

	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casenote_batch_size",
		Help:    "Number of note entries per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 500},
	})
}

func initMatchingMetrics(m *Metrics) {
	m.MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casenote_match_duration_seconds",
		Help:    "Time spent in keyword and pattern matching",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	m.KeywordsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_keywords_evaluated_total",
		Help: "Total keyword evaluations",
	})

	m.CategoriesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casenote_categories_matched_total",
		Help: "Total category matches by domain",
	}, []string{"domain"})

	m.NegationSuppressions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_negation_suppressions_total",
		Help: "Total keyword matches suppressed as negated",
	})

	m.IncidentsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casenote_incidents_matched_total",
		Help: "Total incident pattern matches by category",
	}, []string{"category"})

	m.PrescanSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_prescan_skips_total",
		Help: "Entries skipped entirely by the keyword prescan",
	})
}

func initBackpressureMetrics(m *Metrics) {
	m.QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casenote_queue_depth",
		Help: "Current pending entries in the work queue",
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casenote_active_workers",
		Help: "Currently active worker goroutines",
	})

	m.ThrottleCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_throttle_count_total",
		Help: "Number of times batch intake was throttled",
	})
}

func initHistoryMetrics(m *Metrics) {
	m.HistoryWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_history_writes_total",
		Help: "Total match records written to history",
	})

	m.HistoryWriteFailure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casenote_history_write_failures_total",
		Help: "Total failed history writes",
	})
}

// RecordCategorization records metrics for a single categorization.
func (p *Provider) RecordCategorization(ctx context.Context, domain string, success bool, duration time.Duration) {
	if success {
		p.Metrics.EntriesProcessed.WithLabelValues(domain).Inc()
	}
	p.Metrics.ProcessingDuration.WithLabelValues(domain).Observe(duration.Seconds())
}

// RecordCategorizationFailure records a failed categorization with an
// error code.
func (p *Provider) RecordCategorizationFailure(ctx context.Context, domain, errorCode string) {
	p.Metrics.EntriesFailed.WithLabelValues(domain, errorCode).Inc()
}

// RecordMatch records keyword matching metrics.
func (p *Provider) RecordMatch(ctx context.Context, duration time.Duration, keywordsEvaluated int) {
	p.Metrics.MatchDuration.Observe(duration.Seconds())
	p.Metrics.KeywordsEvaluated.Add(float64(keywordsEvaluated))
}

// RecordCategories records matched category counts for a domain.
func (p *Provider) RecordCategories(ctx context.Context, domain string, matched int) {
	if matched > 0 {
		p.Metrics.CategoriesMatched.WithLabelValues(domain).Add(float64(matched))
	}
}

// RecordSuppression counts a negation suppression.
func (p *Provider) RecordSuppression(ctx context.Context) {
	p.Metrics.NegationSuppressions.Inc()
}

// RecordIncident counts an incident category match.
func (p *Provider) RecordIncident(ctx context.Context, category string) {
	p.Metrics.IncidentsMatched.WithLabelValues(category).Inc()
}

// RecordPrescanSkip counts an entry the prescan ruled out entirely.
func (p *Provider) RecordPrescanSkip(ctx context.Context) {
	p.Metrics.PrescanSkips.Inc()
}

// RecordHistoryWrite records a history write attempt.
func (p *Provider) RecordHistoryWrite(ctx context.Context, success bool) {
	if success {
		p.Metrics.HistoryWrites.Inc()
		return
	}
	p.Metrics.HistoryWriteFailure.Inc()
}

// SetQueueDepth sets the current queue depth.
func (p *Provider) SetQueueDepth(depth int) {
	p.Metrics.QueueDepth.Set(float64(depth))
}

// SetActiveWorkers sets the current active worker count.
func (p *Provider) SetActiveWorkers(count int) {
	p.Metrics.ActiveWorkers.Set(float64(count))
}

// IncrementThrottleCount increments the throttle counter.
func (p *Provider) IncrementThrottleCount() {
	p.Metrics.ThrottleCount.Inc()
}

// RecordBatchSize records the size of a processed batch.
func (p *Provider) RecordBatchSize(size int) {
	p.Metrics.BatchSize.Observe(float64(size))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
