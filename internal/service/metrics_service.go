package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/scas-api/internal/models"
)

const metricsNamespace = "scas"

// MetricsService owns a private Prometheus registry and mirrors the headline counters
// in atomics so /system/metrics can answer without scraping.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	dbQueryDuration *prometheus.HistogramVec
	kpiDuration     *prometheus.HistogramVec
	issuesGauge     *prometheus.GaugeVec
	uploadedRows    *prometheus.CounterVec

	cacheHits        atomic.Uint64
	cacheMisses      atomic.Uint64
	requests         atomic.Uint64
	requestNanos     atomic.Uint64
	dbQueries        atomic.Uint64
	dbQueryNanos     atomic.Uint64
	kpiComputations  atomic.Uint64
	rowsUploaded     atomic.Uint64
	validationIssues atomic.Int64
}

// NewMetricsService registers the application collectors alongside the Go runtime
// and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{registry: registry}
	m.requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.requestTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern.",
	}, []string{"method", "route", "status"})
	m.cacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "kpi_cache_lookups_total",
		Help:      "KPI cache lookups by outcome.",
	}, []string{"result"})
	m.cacheLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "kpi_cache_read_seconds",
		Help:      "Latency of KPI cache reads.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheWrite = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "kpi_cache_write_seconds",
		Help:      "Latency of KPI cache writes.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	m.cacheHitRatio = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "kpi_cache_hit_ratio",
		Help:      "Share of KPI cache lookups that hit since start.",
	})
	m.dbQueryDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "db_query_duration_seconds",
		Help:      "Duration of record store queries by entity and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})
	m.kpiDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "kpi_compute_duration_seconds",
		Help:      "Duration of KPI aggregation per dashboard view.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})
	m.issuesGauge = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "facility_validation_issues",
		Help:      "Facilities failing each consistency check at the last validation run.",
	}, []string{"kind"})
	m.uploadedRows = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "upload_rows_total",
		Help:      "Rows written by bulk uploads.",
	}, []string{"entity"})

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format. A nil service answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one completed request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
	m.requests.Add(1)
	m.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a KPI cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHits.Add(1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		m.cacheMisses.Add(1)
	}
	m.cacheHitRatio.Set(m.hitRatio())
}

// ObserveCacheWrite records a KPI cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records a record store query. label is "<entity>.<operation>".
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueries.Add(1)
	m.dbQueryNanos.Add(uint64(duration.Nanoseconds()))
}

// ObserveKPICompute records how long a dashboard view took to aggregate.
func (m *MetricsService) ObserveKPICompute(view string, duration time.Duration) {
	if m == nil {
		return
	}
	m.kpiDuration.WithLabelValues(view).Observe(duration.Seconds())
	m.kpiComputations.Add(1)
}

// SetValidationIssues publishes the offending facility count per check. Kinds absent
// from counts drop out of the gauge.
func (m *MetricsService) SetValidationIssues(counts map[string]int) {
	if m == nil {
		return
	}
	m.issuesGauge.Reset()
	total := 0
	for kind, n := range counts {
		m.issuesGauge.WithLabelValues(kind).Set(float64(n))
		total += n
	}
	m.validationIssues.Store(int64(total))
}

// AddUploadedRows counts rows written by a bulk upload.
func (m *MetricsService) AddUploadedRows(entity string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.uploadedRows.WithLabelValues(entity).Add(float64(rows))
	m.rowsUploaded.Add(uint64(rows))
}

func (m *MetricsService) hitRatio() float64 {
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}

// Snapshot summarises the counters for the system metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := m.requests.Load()
	dbQueries := m.dbQueries.Load()

	return models.SystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                m.cacheHits.Load(),
		CacheMisses:              m.cacheMisses.Load(),
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(m.requestNanos.Load(), requests),
		DBQueryCount:             dbQueries,
		AverageDBQueryDurationMs: averageMillis(m.dbQueryNanos.Load(), dbQueries),
		KPIComputations:          m.kpiComputations.Load(),
		RowsUploaded:             m.rowsUploaded.Load(),
		ValidationIssues:         int(m.validationIssues.Load()),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
