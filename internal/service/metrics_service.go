package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/pkg/jobs"
)

// MetricsService owns the Prometheus registry and keeps running totals for
// the JSON summary endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	aiOutcomes      *prometheus.CounterVec
	aiDuration      *prometheus.HistogramVec
	backupImports   *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec

	hits, misses atomic.Uint64
	aiFailures   atomic.Uint64
	requests     tally
	queries      tally
	aiCalls      tally
}

// tally accumulates a count and total duration for the JSON summary.
type tally struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *tally) add(d time.Duration) {
	t.count.Add(1)
	t.nanos.Add(uint64(d.Nanoseconds()))
}

// meanMs is the average duration in milliseconds, 0 when empty.
func (t *tally) meanMs() float64 {
	n := t.count.Load()
	if n == 0 {
		return 0
	}
	return float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

func ratio(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

const metricsNamespace = "aba_tracker"

func histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help}, labels)
}

// NewMetricsService builds a private registry with the service collectors and
// the Go runtime collector.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry:        prometheus.NewRegistry(),
		requestDuration: histogramVec("http_request_duration_seconds", "HTTP request latency by route pattern", nil, "method", "path", "status"),
		requestTotal:    counterVec("http_requests_total", "HTTP requests by route pattern", "method", "path", "status"),
		dbQueryDuration: histogramVec("db_query_duration_seconds", "Store reads issued by services", nil, "query"),
		aiOutcomes:      counterVec("ai_calls_total", "Model calls by operation and outcome", "operation", "outcome"),
		aiDuration:      histogramVec("ai_call_duration_seconds", "Latency of model calls", []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80}, "operation"),
		backupImports:   counterVec("backup_imports_total", "Backup imports by mode and outcome", "mode", "outcome"),
		reportJobs:      counterVec("report_jobs_total", "Report job transitions by format and status", "format", "status"),
	}

	cacheOps := histogramVec("cache_operation_seconds", "Analytics cache latency by operation", nil, "op")
	m.cacheLatency = cacheOps.WithLabelValues("get")
	m.cacheWrite = cacheOps.WithLabelValues("set")
	lookups := counterVec("cache_lookups_total", "Analytics cache lookups by result", "result")
	m.cacheHits = lookups.WithLabelValues("hit")
	m.cacheMisses = lookups.WithLabelValues("miss")
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hit_ratio",
		Help:      "Share of analytics cache lookups served from Redis",
	})

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal, cacheOps, lookups, m.cacheHitRatio,
		m.dbQueryDuration, m.aiOutcomes, m.aiDuration, m.backupImports, m.reportJobs,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
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

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		m.hits.Add(1)
	} else {
		m.cacheMisses.Inc()
		m.misses.Add(1)
	}
	hits := m.hits.Load()
	m.cacheHitRatio.Set(ratio(hits, hits+m.misses.Load()))
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// ObserveAICall records one model call. The outcome label is "ok" or "error".
func (m *MetricsService) ObserveAICall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.aiFailures.Add(1)
	}
	m.aiOutcomes.WithLabelValues(operation, outcome).Inc()
	m.aiDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.aiCalls.add(duration)
}

// ObserveBackupImport counts backup imports.
func (m *MetricsService) ObserveBackupImport(mode models.ImportMode, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backupImports.WithLabelValues(string(mode), outcome).Inc()
}

// ObserveReportJob counts finished or failed report jobs.
func (m *MetricsService) ObserveReportJob(format models.ReportFormat, status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(format), string(status)).Inc()
}

// Snapshot returns the running totals served by /metrics/summary.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.hits.Load(), m.misses.Load()
	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, hits+misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            m.requests.count.Load(),
		AverageRequestDurationMs: m.requests.meanMs(),
		DBQueryCount:             m.queries.count.Load(),
		AverageDBQueryDurationMs: m.queries.meanMs(),
		AICalls:                  m.aiCalls.count.Load(),
		AIFailures:               m.aiFailures.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

// TrackQueue exports depth and counters of a job queue under the queue label.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) {
	if m == nil || stats == nil {
		return
	}
	labels := prometheus.Labels{"queue": name}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "queue_pending_jobs", Help: "Jobs waiting for a worker", ConstLabels: labels,
		}, func() float64 { return float64(stats().Pending) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "queue_jobs_processed_total", Help: "Jobs that completed", ConstLabels: labels,
		}, func() float64 { return float64(stats().Processed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "queue_jobs_failed_total", Help: "Jobs dropped after exhausting retries", ConstLabels: labels,
		}, func() float64 { return float64(stats().Failed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "queue_jobs_retried_total", Help: "Job retries scheduled", ConstLabels: labels,
		}, func() float64 { return float64(stats().Retried) }),
	)
}
