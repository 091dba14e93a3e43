package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is a thin JSON cache over Redis. When Redis is not configured or
// unreachable the cache degrades to a no-op; callers always fall back to
// the database.
type Cache struct {
	client *redis.Client
}

// New connects to Redis. An empty addr or a failed ping yields a
// disabled cache, not an error.
func New(addr, password string) *Cache {
	if addr == "" {
		return &Cache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Redis unreachable, continuing without cache")
		return &Cache{}
	}

	log.Info().Str("addr", addr).Msg("Redis connection established")
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c.client != nil
}

// GetJSON loads a cached value into dest. The bool reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache entry corrupt, dropping")
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON stores a value with a TTL. Failures are logged, never returned.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache delete failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis client")
	}
}
