package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate by method/route/status. Watch for: sudden drops
	// (service down) or error-status spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency. Watch for: p95/p99 increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream BMKG fetch outcomes (ok/error/empty). Watch for: error vs
	// success ratio.
	BMKGFetchesTotal *prometheus.CounterVec

	// Upstream fetch + process latency. Watch for: p95 > 2s (upstream
	// degradation).
	BMKGFetchDuration prometheus.Histogram

	// Snapshot cache lookups by result (hit/miss). Hit rate = hit/(hit+miss).
	ForecastCacheHitsTotal *prometheus.CounterVec

	// Observations dropped by the normalizer. Watch for: upstream schema
	// drift.
	NormalizerDroppedTotal prometheus.Counter

	// WebSocket clients currently connected.
	WebSocketClients prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacwx_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tacwx_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	BMKGFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacwx_bmkg_fetches_total",
			Help: "Upstream forecast fetches by outcome",
		},
		[]string{"outcome"},
	)
	BMKGFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tacwx_bmkg_fetch_duration_seconds",
			Help:    "Upstream fetch and processing latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
	)
	ForecastCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacwx_forecast_cache_lookups_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)
	NormalizerDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tacwx_normalizer_dropped_total",
			Help: "Observations dropped during normalization",
		},
	)
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacwx_websocket_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		BMKGFetchesTotal,
		BMKGFetchDuration,
		ForecastCacheHitsTotal,
		NormalizerDroppedTotal,
		WebSocketClients,
	)
}

// RecordHTTPRequest records one served request in the HTTP metrics
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the /metrics endpoint handler
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
