package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the cache and store instrumentation for one service instance.
type Metrics struct {
	CacheHits            *prometheus.CounterVec
	CacheMisses          *prometheus.CounterVec
	CacheInvalidations   *prometheus.CounterVec
	DiscardedPopulations *prometheus.CounterVec
	StaleFallbacks       prometheus.Counter
	StoreLatency         *prometheus.HistogramVec
}

// New registers and returns the metric set on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cakeshop_cache_hits_total",
			Help: "Fresh cache hits by tier.",
		}, []string{"tier"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cakeshop_cache_misses_total",
			Help: "Cache misses by tier.",
		}, []string{"tier"}),
		CacheInvalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cakeshop_cache_invalidations_total",
			Help: "Invalidation events applied by tier.",
		}, []string{"tier"}),
		DiscardedPopulations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cakeshop_cache_discarded_populations_total",
			Help: "Populations rejected by the invalidation watermark, by tier.",
		}, []string{"tier"}),
		StaleFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "cakeshop_cache_stale_fallbacks_total",
			Help: "Reads served from an expired entry because the store was unreachable.",
		}),
		StoreLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cakeshop_store_request_duration_seconds",
			Help:    "Review store round-trip latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}
