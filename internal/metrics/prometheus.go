package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_files_ingested_total",
			Help: "Files offered for ingestion by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_extractions_total",
			Help: "Comment extractions by media kind and status",
		},
		[]string{"kind", "status"},
	)

	CommentsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_comments_extracted_total",
			Help: "Comments extracted by media kind",
		},
		[]string{"kind"},
	)

	AnalysisAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_analysis_attempts_total",
			Help: "Remote analysis attempts by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_analysis_results_total",
			Help: "Finalized analysis results by sentiment",
		},
		[]string{"sentiment"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comment_insight_analysis_duration_seconds",
			Help:    "Time to finalize one comment, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comment_insight_confidence_score",
			Help:    "Confidence of successful verdicts",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comment_insight_verdict_cache_hits_total",
			Help: "Verdicts served from cache",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comment_insight_verdict_cache_misses_total",
			Help: "Verdict cache lookups that went to the remote service",
		},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comment_insight_runs_total",
			Help: "Analysis runs by status",
		},
		[]string{"status"},
	)

	RunSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comment_insight_run_comments",
			Help:    "Number of comments per run",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "comment_insight_active_runs",
			Help: "Runs currently held in the registry",
		},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "comment_insight_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			FilesIngested,
			ExtractionTotal,
			CommentsExtracted,
			AnalysisAttempts,
			AnalysisResults,
			AnalysisDuration,
			ConfidenceScore,
			CacheHits,
			CacheMisses,
			RunsTotal,
			RunSize,
			ActiveRuns,
			BreakerState,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
