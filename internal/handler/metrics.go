package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/charge0315/yt-orchestrator/internal/quota"
)

// Metrics holds all Prometheus collectors for the orchestrator backend.
var Metrics = struct {
	RefreshOutcomes    *prometheus.CounterVec
	QuotaConsumed      prometheus.GaugeFunc
	QuotaRemaining     prometheus.GaugeFunc
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	RecCacheHits       prometheus.Counter
	RecCacheMisses     prometheus.Counter
	PlaylistItemsAdded prometheus.Counter
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(ledger *quota.Ledger) {
	Metrics.RefreshOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytorch_refresh_outcomes_total",
			Help: "Channel refresh outcomes, by status.",
		},
		[]string{"status"},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ytorch_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytorch_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.RecCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytorch_recommendation_cache_hits_total",
			Help: "Total recommendation cache hits.",
		},
	)

	Metrics.RecCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytorch_recommendation_cache_misses_total",
			Help: "Total recommendation cache misses.",
		},
	)

	Metrics.PlaylistItemsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytorch_playlist_items_added_total",
			Help: "Playlist items added via adds and imports.",
		},
	)

	// Quota gauges read the live ledger window.
	if ledger != nil {
		Metrics.QuotaConsumed = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ytorch_quota_units_consumed",
				Help: "API quota units consumed in the current window.",
			},
			func() float64 {
				return float64(ledger.CurrentWindow().Consumed)
			},
		)

		Metrics.QuotaRemaining = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ytorch_quota_units_remaining",
				Help: "API quota units remaining in the current window.",
			},
			func() float64 {
				return float64(ledger.CurrentWindow().Remaining)
			},
		)

		prometheus.MustRegister(Metrics.QuotaConsumed)
		prometheus.MustRegister(Metrics.QuotaRemaining)
	}

	prometheus.MustRegister(
		Metrics.RefreshOutcomes,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.RecCacheHits,
		Metrics.RecCacheMisses,
		Metrics.PlaylistItemsAdded,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case len(path) > 14 && path[:14] == "/api/channels/":
		return "/api/channels/:channelId"
	case len(path) > 13 && path[:13] == "/api/artists/":
		return "/api/artists/:channelId"
	case len(path) > 15 && path[:15] == "/api/playlists/":
		return "/api/playlists/:playlistId"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
