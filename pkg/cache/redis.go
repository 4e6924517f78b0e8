package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/logging"
)

// keyPattern matches every key written by the Redis store.
const keyPattern = "border_data:*"

// Redis is the optional Store backend for deployments that want the cache
// to survive process restarts. Expiry is delegated to the Redis key TTL;
// the stored-at check stays as a guard against clock drift between
// writers.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client, cfg Config) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Redis{
		client: client,
		ttl:    cfg.TTL,
		logger: logging.NewLogger("cache"),
	}, nil
}

// Get returns the matrix stored for key, or ErrMiss.
func (s *Redis) Get(ctx context.Context, key Key) (gates.Matrix, error) {
	k := key.String()

	data, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}

	if entry.Expired(time.Now(), s.ttl) {
		if err := s.client.Del(ctx, k).Err(); err != nil {
			cacheErrors.WithLabelValues("get").Inc()
		}
		cacheEvictions.WithLabelValues("redis").Inc()
		cacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrMiss
	}

	cacheHits.WithLabelValues("redis").Inc()
	return entry.Matrix, nil
}

// Set stores the matrix with the current timestamp and the configured TTL.
func (s *Redis) Set(ctx context.Context, key Key, m gates.Matrix) error {
	k := key.String()

	data, err := json.Marshal(&Entry{Matrix: m, StoredAt: time.Now()})
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, k, data, s.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	s.logger.Debug().Str("key", k).Int("rows", len(m)).Msg("Cached matrix")
	return nil
}

// Stats scans the store's key space and reports entry count and
// approximate serialized size.
func (s *Redis) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{TTLSeconds: int(s.ttl / time.Second)}

	iter := s.client.Scan(ctx, 0, keyPattern, 0).Iterator()
	for iter.Next(ctx) {
		stats.Entries++
		n, err := s.client.StrLen(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		stats.ApproxSizeBytes += int(n)
	}
	if err := iter.Err(); err != nil {
		cacheErrors.WithLabelValues("stats").Inc()
		return Stats{}, fmt.Errorf("redis scan: %w", err)
	}

	return stats, nil
}
