package config

// Redis backs the rate limiter on the reservation endpoint and the
// short-lived response cache on the stock endpoint.  Both degrade
// gracefully: if the connection cannot be established at startup the
// constructor returns nil and the middleware become pass-throughs.

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from REDIS_ADDR (or
// REDIS_HOST/REDIS_PORT) and the optional REDIS_PASSWORD.  The
// returned client is nil when the server cannot be reached.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// RateLimitConfig defines the token bucket applied to the reservation
// endpoint.  Capacity is the burst size; one token refills every
// RefillInterval.  TTL bounds how long idle buckets live in Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads the rate limit settings from environment
// variables, falling back to defaults suited for a public sale.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenvDefault("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillInterval: envDuration("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDuration("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenvDefault("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
