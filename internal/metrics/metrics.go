package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routeadvisor_pool_count",
		Help: "Total number of pools in the liquidity graph",
	})

	AssetCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routeadvisor_asset_count",
		Help: "Total number of assets in the liquidity graph",
	})

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_pool_updates_total",
		Help: "Total number of pool state updates applied",
	})

	GraphSnapshotRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_graph_snapshot_rebuilds_total",
		Help: "Total number of full graph snapshot rebuilds",
	})

	GraphIncrementalUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_graph_incremental_updates_total",
		Help: "Total number of incremental snapshot patches",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeadvisor_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"strategy", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routeadvisor_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	DegradedQuotes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_degraded_quotes_total",
		Help: "Total number of quotes served from a partial search after deadline",
	})

	// Router phase metrics for performance analysis
	DirectQuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeadvisor_direct_quote_duration_seconds",
		Help:    "Single-hop quote calculation duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
	})

	MultiHopDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeadvisor_multihop_duration_seconds",
		Help:    "Multi-hop search duration in seconds",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	SplitRouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeadvisor_split_route_duration_seconds",
		Help:    "Split optimization duration in seconds",
		Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02},
	})

	SplitCompositionsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeadvisor_split_compositions_evaluated",
		Help:    "Number of split compositions evaluated per quote",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	PoolsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeadvisor_pools_evaluated",
		Help:    "Number of pools evaluated per quote request",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routeadvisor_price_impact_bps",
			Help:    "Price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Cache metrics
	QuoteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_quote_cache_hits_total",
		Help: "Total number of quote cache hits",
	})

	QuoteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_quote_cache_misses_total",
		Help: "Total number of quote cache misses",
	})

	QuoteCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routeadvisor_quote_cache_size",
		Help: "Current number of entries in the quote cache",
	})

	QuoteCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeadvisor_quote_cache_evictions_total",
		Help: "Total number of quote cache LRU evictions",
	})

	// Persistence metrics
	PoolsPersisted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routeadvisor_pools_persisted",
		Help: "Number of pools written in the last snapshot save",
	})

	PoolsRestored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routeadvisor_pools_restored",
		Help: "Number of pools loaded from disk at startup",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeadvisor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routeadvisor_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// PriceImpactSeverity buckets an impact value for the labeled histogram.
func PriceImpactSeverity(impactPct float64) string {
	switch {
	case impactPct < 0.1:
		return "low"
	case impactPct < 1:
		return "medium"
	case impactPct < 5:
		return "high"
	default:
		return "severe"
	}
}

// ObservePriceImpact records a quote's impact in basis points.
func ObservePriceImpact(impactPct float64) {
	PriceImpact.WithLabelValues(PriceImpactSeverity(impactPct)).Observe(impactPct * 100)
}
