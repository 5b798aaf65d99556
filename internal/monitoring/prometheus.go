package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expressly_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expressly_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
	}, []string{"route"})

	scoreValues = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expressly_score_value",
		Help:    "Distribution of overall scores per pipeline, normalized to 0-100",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}, []string{"pipeline"})

	nullScores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expressly_null_scores_total",
		Help: "Modalities that degraded to a null score",
	}, []string{"pipeline", "modality", "reason"})

	collaboratorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expressly_collaborator_requests_total",
		Help: "Calls to upstream collaborators",
	}, []string{"collaborator", "status"})

	collaboratorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expressly_collaborator_latency_seconds",
		Help:    "Collaborator call latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 90},
	}, []string{"collaborator"})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "expressly_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	rateLimitBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expressly_rate_limit_blocks_total",
		Help: "Requests rejected by the per-IP limiter",
	})
)

// ObserveHTTP records one served request
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveScore records a pipeline's overall score on a 0-100 scale
func ObserveScore(pipeline string, score100 float64) {
	scoreValues.WithLabelValues(pipeline).Observe(score100)
}

// ObserveNullScore records a modality that came back without a score
func ObserveNullScore(pipeline, modality, reason string) {
	nullScores.WithLabelValues(pipeline, modality, reason).Inc()
}

// ObserveCollaborator records a collaborator call outcome
func ObserveCollaborator(name string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	collaboratorRequests.WithLabelValues(name, status).Inc()
	collaboratorLatency.WithLabelValues(name).Observe(duration.Seconds())
}

// SetBreakerState publishes a breaker state (0=closed, 1=open, 2=half-open)
func SetBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// ObserveRateLimitBlock counts a rejected request
func ObserveRateLimitBlock() {
	rateLimitBlocks.Inc()
}

// PrometheusHandler serves the default registry
func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
