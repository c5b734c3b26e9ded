// Package cache keeps read-mostly documents in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cuongbtq/botmr-be/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Client is the subset of the Redis client used here.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SettingsCache caches the user settings document. Cache failures are
// logged and treated as misses.
type SettingsCache struct {
	client Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func NewSettingsCache(client Client, prefix string, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	return &SettingsCache{
		client: client,
		key:    prefix + ":settings:" + domain.SettingsID,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *SettingsCache) Get(ctx context.Context) (*domain.UserSettings, bool) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Settings cache read failed", slog.Any("error", err))
		return nil, false
	}

	var us domain.UserSettings
	if err := json.Unmarshal(data, &us); err != nil {
		c.logger.Warn("Settings cache entry is corrupt", slog.Any("error", err))
		return nil, false
	}
	return &us, true
}

func (c *SettingsCache) Set(ctx context.Context, us *domain.UserSettings) {
	data, err := json.Marshal(us)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Settings cache write failed", slog.Any("error", err))
	}
}

func (c *SettingsCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Warn("Settings cache invalidation failed", slog.Any("error", err))
	}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
