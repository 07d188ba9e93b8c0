package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monad",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "monad",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "monad",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Routing metrics
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monad",
		Subsystem: "routing",
		Name:      "searches_total",
		Help:      "Total travel time searches by outcome (found, unreachable, aborted, error)",
	}, []string{"strategy", "outcome"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "monad",
		Subsystem: "routing",
		Name:      "search_duration_seconds",
		Help:      "Duration of a single travel time search",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"strategy"})

	SearchExpandedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "monad",
		Subsystem: "routing",
		Name:      "search_expanded_nodes",
		Help:      "Number of nodes expanded by best-first search",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monad",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monad",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Road network metrics
	NetworkVertices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "monad",
		Subsystem: "network",
		Name:      "vertices",
		Help:      "Number of road graph vertices",
	})

	NetworkEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "monad",
		Subsystem: "network",
		Name:      "edges",
		Help:      "Number of directed road graph edges",
	})

	NetworkBusStops = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "monad",
		Subsystem: "network",
		Name:      "bus_stops",
		Help:      "Number of distinct bus stop names",
	})

	IngestionWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "monad",
		Subsystem: "network",
		Name:      "ingestion_warnings_total",
		Help:      "Total warnings produced while building road network",
	})
)

// Middleware records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(ww.BytesWritten()))
	})
}

// Handler returns handler serving Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetNetworkSize updates road network gauges
func SetNetworkSize(vertices, edges, busStops, warnings int) {
	NetworkVertices.Set(float64(vertices))
	NetworkEdges.Set(float64(edges))
	NetworkBusStops.Set(float64(busStops))
	IngestionWarnings.Add(float64(warnings))
}
