// Package metrics documents the Prometheus metrics exposed by the border
// gates service. Metrics are defined in their respective packages
// (scraper, cache, traffic) to maintain modularity; this package holds
// the registry reference and serves as the single place to look them up.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their
// respective packages and served on /metrics.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Upstream Metrics (pkg/scraper):
//   - bordergates_upstream_requests_total{outcome} (Counter): Fetch attempts by outcome (ok, error)
//   - bordergates_upstream_request_duration_seconds (Histogram): Fetch duration
//   - bordergates_upstream_errors_total{kind} (Counter): Fetch errors by kind
//     (timeout, upstream_status, transport)
//
// Cache Metrics (pkg/cache):
//   - bordergates_cache_hits_total{backend} (Counter): Cache hits by backend (memory, redis)
//   - bordergates_cache_misses_total{backend} (Counter): Cache misses
//   - bordergates_cache_evictions_total{backend} (Counter): Expired entries removed on lookup
//   - bordergates_cache_errors_total{operation} (Counter): Cache operation errors (get, set, stats)
//
// Pipeline Metrics (pkg/traffic):
//   - bordergates_pipeline_requests_total{source} (Counter): Successful requests by source (cache, live)
//   - bordergates_pipeline_errors_total{code} (Counter): Failures by stable error code
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(bordergates_cache_hits_total[5m])) /
//   (sum(rate(bordergates_cache_hits_total[5m])) + sum(rate(bordergates_cache_misses_total[5m])))
//
//   # Upstream Error Rate
//   rate(bordergates_upstream_errors_total[5m])
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(bordergates_upstream_request_duration_seconds_bucket[5m]))
//
//   # Share of Requests Served From Cache
//   rate(bordergates_pipeline_requests_total{source="cache"}[5m]) /
//   sum(rate(bordergates_pipeline_requests_total[5m]))
