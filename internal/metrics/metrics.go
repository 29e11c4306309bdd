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

// Habit events counted by RecordHabitEvent
const (
	EventCreated       = "created"
	EventDeleted       = "deleted"
	EventMarked        = "marked"
	EventAlreadyMarked = "already_marked"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "habit_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	habitEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Subsystem: "habit",
			Name:      "events_total",
			Help:      "Habit mutations by kind.",
		},
		[]string{"event"},
	)

	chartsRendered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Subsystem: "progress",
			Name:      "charts_rendered_total",
			Help:      "Total number of progress charts rendered.",
		},
	)

	sweptChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "habit_tracker",
			Subsystem: "sweeper",
			Name:      "orphan_checks_deleted_total",
			Help:      "Habit checks deleted because their habit no longer exists.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		habitEvents,
		chartsRendered,
		sweptChecks,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if path == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordHabitEvent counts a habit mutation
func RecordHabitEvent(event string) {
	habitEvents.WithLabelValues(event).Inc()
}

// RecordChartRendered counts a rendered progress chart
func RecordChartRendered() {
	chartsRendered.Inc()
}

// RecordSweptChecks counts orphan checks removed by the sweeper
func RecordSweptChecks(n int64) {
	if n > 0 {
		sweptChecks.Add(float64(n))
	}
}
