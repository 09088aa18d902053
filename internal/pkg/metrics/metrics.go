package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripsense",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	// Pipeline metrics
	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tripsense",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of the route aggregation pipeline stages",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})

	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "pipeline",
		Name:      "recommendations_total",
		Help:      "Total vehicle recommendations computed",
	}, []string{"group"})

	// Road classification metrics
	RoadCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "roads",
		Name:      "cache_hits_total",
		Help:      "Total geo-bucket cache hits in the road classifier",
	})

	RoadCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "roads",
		Name:      "cache_misses_total",
		Help:      "Total geo-bucket cache misses in the road classifier",
	})

	RoadPointsUnresolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "roads",
		Name:      "points_unresolved_total",
		Help:      "Total sampled points that resolved to the unknown road type",
	})

	// Upstream provider metrics
	UpstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "upstream",
		Name:      "retries_total",
		Help:      "Total retried upstream calls",
	}, []string{"provider"})

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "upstream",
		Name:      "failures_total",
		Help:      "Total failed upstream calls after retries were exhausted",
	}, []string{"provider"})

	// Context cache (valkey) metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripsense",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, start time.Time) {
	PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
