package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_total",
			Help: "PDF extractions by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)
	analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_total",
			Help: "Contract analyses by outcome.",
		},
		[]string{"outcome"},
	)
	providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Outbound LLM provider requests by outcome.",
		},
		[]string{"outcome"},
	)
	providerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "LLM provider request latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	chatTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat turns by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	panics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Recovered handler panics by route pattern.",
		},
		[]string{"route"},
	)
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter by group.",
		},
		[]string{"group"},
	)
	gateDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_gate_denials_total",
			Help: "Plan gate denials by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		extractions,
		analyses,
		providerRequests,
		providerDuration,
		chatTurns,
		gateDenials,
		panics,
		rateLimited,
	)
}

// ObserveExtraction records a finished extraction.
func ObserveExtraction(tier, outcome string) {
	extractions.WithLabelValues(tier, outcome).Inc()
}

// ObserveAnalysis records a finished analysis (ok, degraded, provider_error).
func ObserveAnalysis(outcome string) {
	analyses.WithLabelValues(outcome).Inc()
}

// ObserveProviderRequest records one outbound provider call.
func ObserveProviderRequest(outcome string, elapsed time.Duration) {
	providerRequests.WithLabelValues(outcome).Inc()
	providerDuration.Observe(elapsed.Seconds())
}

// ObserveChatTurn records a chat turn.
func ObserveChatTurn(mode, outcome string) {
	chatTurns.WithLabelValues(mode, outcome).Inc()
}

// ObserveGateDenial records a plan gate denial.
func ObserveGateDenial(reason string) {
	gateDenials.WithLabelValues(reason).Inc()
}

// ObservePanic records a recovered panic.
func ObservePanic(route string) {
	panics.WithLabelValues(route).Inc()
}

// ObserveRateLimited records a throttled request.
func ObserveRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware counts requests by route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
