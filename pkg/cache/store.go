package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jojapi/border-gates/pkg/gates"
)

// ErrMiss indicates the requested key is absent or expired.
var ErrMiss = errors.New("cache miss")

// DefaultTTL is the cache time-to-live used when none is configured.
const DefaultTTL = 3600 * time.Second

// Config holds store configuration shared by all backends.
type Config struct {
	// TTL is the maximum age of an entry before a lookup treats it as
	// absent.
	TTL time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL}
}

// Stats describes the current cache contents, for observability only.
// No eviction decision is ever based on these numbers.
type Stats struct {
	// Entries is the number of entries currently stored, expired or not.
	Entries int `json:"active_entries"`

	// TTLSeconds is the configured time-to-live.
	TTLSeconds int `json:"timeout_seconds"`

	// ApproxSizeBytes approximates the stored cell data volume.
	ApproxSizeBytes int `json:"approx_size_bytes"`
}

// Store is a time-bounded key-value store for gate data matrices.
// Implementations must be safe for concurrent use and must hand out
// matrices that callers can freely hold without observing later changes.
type Store interface {
	// Get returns the matrix stored for key, or ErrMiss when the key is
	// absent or its entry has aged past the TTL. Expired entries are
	// deleted lazily by the lookup that finds them.
	Get(ctx context.Context, key Key) (gates.Matrix, error)

	// Set unconditionally stores the matrix for key with the current
	// timestamp, overwriting any existing entry.
	Set(ctx context.Context, key Key, m gates.Matrix) error

	// Stats reports entry count, TTL and approximate size.
	Stats(ctx context.Context) (Stats, error)
}
