// Package metrics holds the Prometheus collectors of the service. They are
// registered on a private registry served by Handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convolens_analyses_total",
			Help: "Lexical analyses run, by sentiment category",
		},
		[]string{"category"},
	)

	ChurnScoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convolens_churn_scores_total",
			Help: "Churn risk assessments computed, by risk level",
		},
		[]string{"level"},
	)

	ChurnScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "convolens_churn_score",
			Help:    "Distribution of churn risk scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convolens_batch_duration_seconds",
			Help:    "Duration of batch analysis and scoring runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"kind"},
	)

	BatchItemFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convolens_batch_item_failures_total",
			Help: "Conversations that failed inside a batch",
		},
		[]string{"kind"},
	)

	TrendPointsUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convolens_trend_points_upserted_total",
			Help: "Daily trend rows written by recompute",
		},
	)

	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convolens_worker_jobs_total",
			Help: "Stream jobs handled by the analysis worker, by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convolens_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convolens_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AnalysesTotal,
		ChurnScoresTotal,
		ChurnScore,
		BatchDuration,
		BatchItemFailures,
		TrendPointsUpserted,
		JobsProcessed,
		HTTPRequests,
		HTTPLatency,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// ObserveChurn records one churn assessment.
func ObserveChurn(score int, level string) {
	ChurnScoresTotal.WithLabelValues(level).Inc()
	ChurnScore.Observe(float64(score))
}

// GinMiddleware counts requests per matched route template so path
// parameters do not explode label cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
