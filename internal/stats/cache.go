package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/crime-ease/platform/internal/shared/config"
)

// Cache is a short-lived Redis cache for dashboard aggregates. Dashboards
// poll; the aggregates are expensive enough that a small TTL pays off. A
// nil Cache (Redis not configured) degrades to computing every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache connects to Redis; returns nil when no address is configured.
func NewCache(cfg config.RedisConfig, logger *zap.Logger) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.StatsTTLSeconds) * time.Second,
		logger: logger,
	}
}

// Get loads a cached value into dest. Returns false on miss or any error;
// cache failures fall through to a fresh computation.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}

	return true
}

// Set stores a value with the configured TTL. Errors are logged only.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the Redis connection
func (c *Cache) Close() {
	if c != nil {
		c.client.Close()
	}
}
