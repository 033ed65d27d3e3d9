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
		Namespace: "plotfit",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plotfit",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plotfit",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Placement metrics
	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotfit",
		Subsystem: "validation",
		Name:      "results_total",
		Help:      "Containment validations by result and rejection reason",
	}, []string{"result", "reason"})

	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "plotfit",
		Subsystem: "validation",
		Name:      "duration_seconds",
		Help:      "Duration of a containment validation",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	ValidationCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "plotfit",
		Subsystem: "validation",
		Name:      "candidate_polygons",
		Help:      "Polygons left after the bounding-box prefilter",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	DragOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotfit",
		Subsystem: "overlay",
		Name:      "placements_total",
		Help:      "Finished drags and placements by outcome",
	}, []string{"outcome"})

	// Parcel provider metrics
	ParcelFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plotfit",
		Subsystem: "parcels",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of parcel polygon fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	ParcelFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotfit",
		Subsystem: "parcels",
		Name:      "fetch_errors_total",
		Help:      "Total parcel polygon fetch errors",
	}, []string{"source"})

	PolygonsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "plotfit",
		Subsystem: "parcels",
		Name:      "polygons_loaded",
		Help:      "Polygons in the current set",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "plotfit",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotfit",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plotfit",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "plotfit",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "plotfit",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "plotfit",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveValidation records one validator run.
func ObserveValidation(valid bool, reason string, candidates int, d time.Duration) {
	result := "accepted"
	if !valid {
		result = "rejected"
	}
	Validations.WithLabelValues(result, reason).Inc()
	ValidationDuration.Observe(d.Seconds())
	ValidationCandidates.Observe(float64(candidates))
}

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
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies pgxpool.Stat counters into the pool gauges.
// The argument is untyped so this package does not import pgxpool.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
