package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	generationDuration prometheus.Histogram
	sessionsGenerated  prometheus.Counter
	conflictsDetected  prometheus.Counter
	schedulesSaved     prometheus.Counter
	exportsRendered    *prometheus.CounterVec

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_generation_duration_seconds",
		Help:    "Duration of invigilation schedule generation runs",
		Buckets: prometheus.DefBuckets,
	})

	sessionsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invigilation_sessions_generated_total",
		Help: "Total invigilation sessions produced by the generator",
	})

	conflictsDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invigilation_conflicts_detected_total",
		Help: "Total scheduling conflicts reported by generation and validation",
	})

	schedulesSaved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invigilation_schedules_saved_total",
		Help: "Total schedules persisted from proposals",
	})

	exportsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_exports_rendered_total",
		Help: "Total schedule exports rendered, by format",
	}, []string{"format"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationDuration, sessionsGenerated, conflictsDetected, schedulesSaved, exportsRendered, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationDuration: generationDuration,
		sessionsGenerated:  sessionsGenerated,
		conflictsDetected:  conflictsDetected,
		schedulesSaved:     schedulesSaved,
		exportsRendered:    exportsRendered,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGeneration records one schedule generation run.
func (m *MetricsService) ObserveGeneration(sessions, conflicts int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
	m.sessionsGenerated.Add(float64(sessions))
	m.conflictsDetected.Add(float64(conflicts))
}

// ObserveScheduleSaved counts a persisted schedule.
func (m *MetricsService) ObserveScheduleSaved() {
	if m == nil {
		return
	}
	m.schedulesSaved.Inc()
}

// ObserveExport counts a rendered export by format.
func (m *MetricsService) ObserveExport(format string) {
	if m == nil {
		return
	}
	m.exportsRendered.WithLabelValues(format).Inc()
}

// RecordCacheOperation counts cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
