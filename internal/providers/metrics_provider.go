package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"petcache/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncCacheInvalidations()
	IncCacheStaleSets()
	ObservePersistenceDuration(duration time.Duration)
	IncSaves(result string)
	AddEvictedValues(count int)
	IncQuotaRetries()
	IncDataLoss()
	SetDocumentBytes(size int)
	IncBridgeConsumes(result string)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	cacheInvalidations  prometheus.Counter
	cacheStaleSets      prometheus.Counter
	persistenceDuration prometheus.Histogram
	savesTotal          *prometheus.CounterVec
	evictedValues       prometheus.Counter
	quotaRetries        prometheus.Counter
	dataLoss            prometheus.Counter
	documentBytes       prometheus.Gauge
	bridgeConsumes      *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncCacheInvalidations() {
	m.cacheInvalidations.Inc()
}

func (m *MetricsProvider) IncCacheStaleSets() {
	m.cacheStaleSets.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSaves(result string) {
	m.savesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) AddEvictedValues(count int) {
	m.evictedValues.Add(float64(count))
}

func (m *MetricsProvider) IncQuotaRetries() {
	m.quotaRetries.Inc()
}

func (m *MetricsProvider) IncDataLoss() {
	m.dataLoss.Inc()
}

func (m *MetricsProvider) SetDocumentBytes(size int) {
	m.documentBytes.Set(float64(size))
}

func (m *MetricsProvider) IncBridgeConsumes(result string) {
	m.bridgeConsumes.WithLabelValues(result).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petcache_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petcache_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_cache_hits_total",
			Help: "Total number of response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_cache_misses_total",
			Help: "Total number of response cache misses",
		}),

		cacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_cache_invalidations_total",
			Help: "Response cache clears triggered by record changes",
		}),

		cacheStaleSets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_cache_stale_sets_total",
			Help: "Responses not cached because the records changed while they were built",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "petcache_persistence_duration_seconds",
			Help:    "Duration of document saves in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		savesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petcache_document_saves_total",
			Help: "Document saves by result (ok, evicted, failed, reset)",
		}, []string{"result"}),

		evictedValues: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_evicted_values_total",
			Help: "Inline image values dropped by eviction",
		}),

		quotaRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_quota_retries_total",
			Help: "Saves retried after a quota exceeded error",
		}),

		dataLoss: promauto.NewCounter(prometheus.CounterOpts{
			Name: "petcache_data_loss_total",
			Help: "Times all records were discarded to recover from quota exhaustion",
		}),

		documentBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "petcache_document_bytes",
			Help: "Serialized size of the last persisted document",
		}),

		bridgeConsumes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "petcache_bridge_consumes_total",
			Help: "Transfer bridge reads by result (hit, miss, expired, corrupt)",
		}, []string{"result"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncCacheInvalidations()                           {}
func (n *noopMetrics) IncCacheStaleSets()                               {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncSaves(_ string)                                {}
func (n *noopMetrics) AddEvictedValues(_ int)                           {}
func (n *noopMetrics) IncQuotaRetries()                                 {}
func (n *noopMetrics) IncDataLoss()                                     {}
func (n *noopMetrics) SetDocumentBytes(_ int)                           {}
func (n *noopMetrics) IncBridgeConsumes(_ string)                       {}
