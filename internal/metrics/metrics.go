// Package metrics provides centralized Prometheus metrics registry for the tipster.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline batch runs",
	})
	MatchesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "matches_processed_total",
		Help:      "Total number of matches that produced a decision",
	})
	MatchesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "matches_skipped_total",
		Help:      "Total number of matches skipped by reason",
	}, []string{"reason"})
	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "candidates_total",
		Help:      "Total number of single-bet candidates produced",
	})
	TicketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "tickets_total",
		Help:      "Total number of combination tickets produced",
	})
	FeedbackSignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "feedback_signals_total",
		Help:      "Total number of reliability feedback signals by kind",
	}, []string{"kind"})
)

// Gauge metrics
var (
	ReliabilityWeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clever_tipster",
		Name:      "reliability_weight",
		Help:      "Current reliability weight for each engine",
	}, []string{"source_id"})
	SignalCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clever_tipster",
		Name:      "signal_cache_hit_ratio",
		Help:      "Hit ratio of the market signal cache",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clever_tipster",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed pipeline run",
	})
)

// Histogram metrics
var (
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_tipster",
		Name:      "batch_duration_seconds",
		Help:      "Duration of pipeline batch runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	OptimizerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_tipster",
		Name:      "optimizer_duration_seconds",
		Help:      "Duration of combination optimisation in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	EdgeScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_tipster",
		Name:      "edge_score",
		Help:      "Edge scores of match decisions",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(MatchesProcessedTotal)
		registry.MustRegister(MatchesSkippedTotal)
		registry.MustRegister(CandidatesTotal)
		registry.MustRegister(TicketsTotal)
		registry.MustRegister(FeedbackSignalsTotal)

		// Register gauge metrics
		registry.MustRegister(ReliabilityWeight)
		registry.MustRegister(SignalCacheHitRatio)
		registry.MustRegister(LastRunTimestamp)

		// Register histogram metrics
		registry.MustRegister(BatchDuration)
		registry.MustRegister(OptimizerDuration)
		registry.MustRegister(EdgeScore)

		// Register feed metrics
		registry.MustRegister(FeedRequestsTotal)
		registry.MustRegister(FeedRequestDuration)
		registry.MustRegister(FeedEntriesDroppedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBatch records a completed pipeline run.
func RecordBatch(durationSeconds float64, decisions, candidates, tickets int, finishedUnix float64) {
	PipelineRunsTotal.Inc()
	BatchDuration.Observe(durationSeconds)
	MatchesProcessedTotal.Add(float64(decisions))
	CandidatesTotal.Add(float64(candidates))
	TicketsTotal.Add(float64(tickets))
	LastRunTimestamp.Set(finishedUnix)
}

// RecordMatchSkipped records a skipped match.
func RecordMatchSkipped(reason string) {
	MatchesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordEdgeScore records the edge score of a decision.
func RecordEdgeScore(score float64) {
	EdgeScore.Observe(score)
}

// RecordOptimizerDuration records combination optimisation duration.
func RecordOptimizerDuration(durationSeconds float64) {
	OptimizerDuration.Observe(durationSeconds)
}

// RecordFeedback records a reliability feedback signal.
func RecordFeedback(kind string) {
	FeedbackSignalsTotal.WithLabelValues(kind).Inc()
}

// UpdateReliabilityWeight updates the weight gauge for an engine.
func UpdateReliabilityWeight(sourceID string, weight float64) {
	ReliabilityWeight.WithLabelValues(sourceID).Set(weight)
}
