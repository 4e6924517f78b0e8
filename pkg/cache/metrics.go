package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by backend (memory, redis).
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bordergates_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	// cacheMisses tracks cache misses by backend.
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bordergates_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// cacheEvictions tracks lazy deletions of expired entries.
	cacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bordergates_cache_evictions_total",
			Help: "Total number of expired entries removed on lookup",
		},
		[]string{"backend"},
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bordergates_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "stats"
	)
)
