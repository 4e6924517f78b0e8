package cache

import (
	"time"

	"github.com/jojapi/border-gates/pkg/gates"
)

// Entry is a cached matrix together with its insertion time.
type Entry struct {
	// Matrix is the filtered gate data stored for this key.
	Matrix gates.Matrix `json:"matrix"`

	// StoredAt is when the entry was inserted.
	StoredAt time.Time `json:"stored_at"`
}

// Expired reports whether the entry is older than ttl at the given time.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) >= ttl
}
