// Package metrics exposes Prometheus collectors for the analysis service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesTotal              *prometheus.CounterVec
	analysisDurationSeconds    *prometheus.HistogramVec
	tasksCreatedTotal          prometheus.Counter
	tasksEvictedTotal          prometheus.Counter
	activeTasks                prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		analysesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seo_analyses_total",
				Help: "Total number of analyses run, labeled by status and mode.",
			},
			[]string{"status", "mode"},
		)

		analysisDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seo_analysis_duration_seconds",
				Help:    "Histogram of end-to-end analysis durations, labeled by mode.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		)

		tasksCreatedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "seo_tasks_created_total",
				Help: "Total number of async analysis tasks created.",
			},
		)

		tasksEvictedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "seo_tasks_evicted_total",
				Help: "Total number of tasks evicted from the registry at capacity.",
			},
		)

		activeTasks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "seo_active_tasks",
				Help: "Number of tasks currently tracked by the registry.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis records one finished analysis.
func ObserveAnalysis(status, mode string, duration time.Duration) {
	analysesTotal.WithLabelValues(status, mode).Inc()
	analysisDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveTaskCreated increments the task creation counter.
func ObserveTaskCreated() {
	tasksCreatedTotal.Inc()
}

// ObserveTaskEvicted increments the eviction counter.
func ObserveTaskEvicted() {
	tasksEvictedTotal.Inc()
}

// SetActiveTasks records the current registry size.
func SetActiveTasks(n int) {
	activeTasks.Set(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
