// Package cache wraps the Redis client used for rate limiting and health probes.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options configure the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it with a short timeout.
// It returns nil when the server is unreachable; callers then run without
// rate limiting.
func NewRedisClient(opts Options, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis not reachable; continuing without it")
		_ = client.Close()
		return nil
	}
	logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return client
}

// Healthy verifies redis connectivity
func Healthy(ctx context.Context, client *redis.Client) bool {
	if client == nil {
		return false
	}
	return client.Ping(ctx).Err() == nil
}

// fixedWindow increments the counter for a key and starts its window on first hit.
// It returns the new count and the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { current, ttl }
`)

// Allow counts one hit for key inside window and reports whether it stays within limit,
// how many hits remain, and how long until the window resets
func Allow(ctx context.Context, client *redis.Client, key string, limit int, window time.Duration) (bool, int, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return true, limit, 0, err
	}
	if len(res) != 2 {
		return true, limit, 0, nil
	}
	count, ttl := res[0], res[1]
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return count <= int64(limit), remaining, time.Duration(ttl) * time.Millisecond, nil
}
