// Package metrics exposes Prometheus instrumentation for the API and its outbound calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfrisk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hfrisk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Inference metrics
	inferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfrisk_inference_requests_total",
			Help: "Total number of calls to the inference services by outcome",
		},
		[]string{"service", "outcome"},
	)

	inferenceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hfrisk_inference_request_duration_seconds",
			Help:    "Inference call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	// Business metrics
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfrisk_predictions_total",
			Help: "Completed predictions by flow and risk tier",
		},
		[]string{"flow", "tier"},
	)

	persistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hfrisk_persist_failures_total",
			Help: "Predictions that succeeded but could not be stored",
		},
	)

	activeSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hfrisk_active_sessions",
			Help: "Open wizard and ECG sessions",
		},
		[]string{"kind"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveInference records one outbound call. outcome is "ok" or an error code.
func ObserveInference(service, outcome string, d time.Duration) {
	inferenceRequestsTotal.WithLabelValues(service, outcome).Inc()
	inferenceRequestDuration.WithLabelValues(service).Observe(d.Seconds())
}

// TierClassified is the tier label for flows whose result is a free-form
// class name rather than a risk tier.
const TierClassified = "classified"

// RecordPrediction counts a completed prediction. tier must come from a fixed
// set of values.
func RecordPrediction(flow, tier string) {
	predictionsTotal.WithLabelValues(flow, tier).Inc()
}

// RecordPersistFailure counts a prediction that was returned but not stored.
func RecordPersistFailure() {
	persistFailuresTotal.Inc()
}

// SetActiveSessions reports the current size of a session registry.
func SetActiveSessions(kind string, n int) {
	activeSessions.WithLabelValues(kind).Set(float64(n))
}
