package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/logging"
)

// Memory is the in-process Store backend: a mutex-guarded map with lazy
// expiry. It is the default backend and the only one that satisfies the
// service's no-persistence contract.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	logger  zerolog.Logger

	// now is swapped in tests to control entry aging.
	now func() time.Time
}

// NewMemory creates an in-memory store.
func NewMemory(cfg Config) *Memory {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]*Entry),
		ttl:     cfg.TTL,
		logger:  logging.NewLogger("cache"),
		now:     time.Now,
	}
}

// Get returns a clone of the stored matrix, or ErrMiss. An expired entry
// is removed by the lookup that finds it.
func (s *Memory) Get(_ context.Context, key Key) (gates.Matrix, error) {
	k := key.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[k]
	if !ok {
		cacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrMiss
	}

	if entry.Expired(s.now(), s.ttl) {
		delete(s.entries, k)
		cacheEvictions.WithLabelValues("memory").Inc()
		cacheMisses.WithLabelValues("memory").Inc()
		s.logger.Debug().Str("key", k).Msg("Cache entry expired")
		return nil, ErrMiss
	}

	cacheHits.WithLabelValues("memory").Inc()
	s.logger.Debug().Str("key", k).Msg("Cache hit")
	return entry.Matrix.Clone(), nil
}

// Set stores a clone of the matrix with the current timestamp, replacing
// any existing entry for the key.
func (s *Memory) Set(_ context.Context, key Key, m gates.Matrix) error {
	k := key.String()

	s.mu.Lock()
	s.entries[k] = &Entry{Matrix: m.Clone(), StoredAt: s.now()}
	s.mu.Unlock()

	s.logger.Debug().Str("key", k).Int("rows", len(m)).Msg("Cached matrix")
	return nil
}

// Stats reports current entry count and approximate stored size. Expired
// entries that no lookup has touched yet are still counted.
func (s *Memory) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := 0
	for _, entry := range s.entries {
		size += entry.Matrix.ApproxSize()
	}

	return Stats{
		Entries:         len(s.entries),
		TTLSeconds:      int(s.ttl / time.Second),
		ApproxSizeBytes: size,
	}, nil
}
