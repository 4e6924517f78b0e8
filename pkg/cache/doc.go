// Package cache provides short-lived caching of scraped gate data matrices.
//
// Entries are keyed by the normalized date range plus the sorted,
// deduplicated filter-gate list, so identical requests hit the same entry
// regardless of filter ordering. Expiry is lazy: an expired entry is
// deleted the next time a lookup finds it; there is no background sweep,
// so memory is bounded only by the distinct keys seen within one TTL.
//
// Two Store backends exist:
//
//   - Memory: a process-local map, the default. Matches the service's
//     no-persistence contract; matrices are cloned on the way in and out
//     so cached data is immutable to callers.
//   - Redis: an optional backend for deployments that want cache survival
//     across restarts, selected via REDIS_URL.
//
// # Basic Usage
//
//	store := cache.NewMemory(cache.Config{TTL: time.Hour})
//
//	key := cache.Key{Range: dateRange, Gates: []string{"Kapıkule"}}
//
//	matrix, err := store.Get(ctx, key)
//	if err == cache.ErrMiss {
//		// fetch fresh data
//	}
//
// # Metrics
//
// The stores export Prometheus metrics:
//
//   - bordergates_cache_hits_total{backend} - Cache hits
//   - bordergates_cache_misses_total{backend} - Cache misses
//   - bordergates_cache_evictions_total{backend} - Lazy expiry deletions
//   - bordergates_cache_errors_total{operation} - Cache operation errors
package cache
