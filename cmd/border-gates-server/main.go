package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jojapi/border-gates/pkg/cache"
	"github.com/jojapi/border-gates/pkg/logging"
	"github.com/jojapi/border-gates/pkg/scraper"
	"github.com/jojapi/border-gates/pkg/traffic"
)

func main() {
	// Configuration from environment
	port := getEnv("PORT", "8000")
	upstreamURL := getEnv("UPSTREAM_URL", scraper.DefaultConfig().UpstreamURL)
	userAgent := getEnv("USER_AGENT", scraper.DefaultConfig().UserAgent)
	redisURL := getEnv("REDIS_URL", "")
	fetchTimeout := getEnvSeconds("FETCH_TIMEOUT_SECONDS", 30)
	cacheTTL := getEnvSeconds("CACHE_TTL_SECONDS", 3600)

	logger := logging.Setup(logging.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	}).With().Str("component", "server").Logger()

	// Cache backend: in-memory unless a Redis URL is configured.
	var store cache.Store
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		redisStore, err := cache.NewRedis(redisClient, cache.Config{TTL: cacheTTL})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Redis cache")
		}
		store = redisStore
		logger.Info().Str("redis_url", redisURL).Msg("Using Redis cache backend")
	} else {
		store = cache.NewMemory(cache.Config{TTL: cacheTTL})
		logger.Info().Msg("Using in-memory cache backend")
	}

	fetcher, err := scraper.New(scraper.Config{
		UpstreamURL: upstreamURL,
		UserAgent:   userAgent,
		Timeout:     fetchTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	svc := traffic.NewService(fetcher, store)
	srv := newServer(svc, cacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("/border-gates", srv.handleBorderGates)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/cache/stats", srv.handleCacheStats)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: fetchTimeout + 10*time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("upstream", upstreamURL).
			Dur("cache_ttl", cacheTTL).
			Msg("Starting border gates server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
