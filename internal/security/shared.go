package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// SharedLimiter counts requests in a store shared by every replica of the
// service. Allow reports whether the key still has quota this minute.
type SharedLimiter interface {
	Allow(ctx context.Context, key string, perMin int) (bool, error)
}

// RedisLimiter is a SharedLimiter backed by a Redis GCRA counter
type RedisLimiter struct {
	client  *redis.Client
	limiter *redis_rate.Limiter
	addr    string
}

// NewRedisLimiter connects to Redis and checks the connection with a ping.
func NewRedisLimiter(ctx context.Context, addr, password string, db int) (*RedisLimiter, error) {
	slog.Info("Initializing Redis rate limit store", "addr", addr, "db", db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisLimiter{
		client:  client,
		limiter: redis_rate.NewLimiter(client),
		addr:    addr,
	}, nil
}

// Allow spends one request of key's per-minute quota
func (r *RedisLimiter) Allow(ctx context.Context, key string, perMin int) (bool, error) {
	res, err := r.limiter.Allow(ctx, "ratelimit:ip:"+key, redis_rate.PerMinute(perMin))
	if err != nil {
		return false, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	return res.Allowed > 0, nil
}

// HealthCheck pings the store
func (r *RedisLimiter) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PoolStats reports connection pool counters for the status endpoint
func (r *RedisLimiter) PoolStats() map[string]interface{} {
	stats := r.client.PoolStats()
	return map[string]interface{}{
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

// Close closes the Redis connection
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
