package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the last admitted call.
const DefaultRedisKey = "claimresolver:ratelimit:live"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Key is the gate key (defaults to "claimresolver:ratelimit:live")
	Key string
}

// recordTTL is the shortest lifetime of the gate key. It outlives any
// realistic interval so a call recorded under a short interval is still
// visible to a caller using a longer one.
const recordTTL = 24 * time.Hour

// acquireScript compares and records in one step using the Redis server
// clock. It returns the remaining wait in milliseconds, 0 when admitted.
var acquireScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local interval = tonumber(ARGV[1])
local last = redis.call('GET', KEYS[1])
if last and interval > 0 then
  local elapsed = now - tonumber(last)
  if elapsed < 0 then elapsed = 0 end
  if elapsed < interval then
    return interval - elapsed
  end
end
redis.call('SET', KEYS[1], now, 'PX', ARGV[2])
return 0
`)

// RedisStore shares the gate across every instance using the same key.
// The last admitted call is stored as a Redis server timestamp, so the
// callers' clocks never decide when the next call is admitted.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	slog.Info("redis rate limit store connected", "key", key)

	return NewRedisStoreFromClient(client, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Acquire implements Store. now is ignored in favour of the server clock.
func (s *RedisStore) Acquire(ctx context.Context, _ time.Time, interval time.Duration) (time.Duration, error) {
	ttl := max(interval, recordTTL)
	waitMs, err := acquireScript.Run(ctx, s.client, []string{s.key},
		max(interval.Milliseconds(), 0), ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to record call in redis: %w", err)
	}
	if waitMs <= 0 {
		return 0, nil
	}
	return min(time.Duration(waitMs)*time.Millisecond, interval), nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
