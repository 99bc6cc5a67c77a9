// Package cache keeps downloaded weather years in Redis so seasonal
// generation does not hit the archive API twice for the same location.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"terracurve/internal/api"
	"terracurve/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// KV is the part of *redis.Client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// YearCache is an api.YearSource that reads through Redis.
type YearCache struct {
	kv   KV
	next api.YearSource
	ttl  time.Duration
	log  *zap.Logger
}

func NewYearCache(kv KV, next api.YearSource, ttl time.Duration, log *zap.Logger) *YearCache {
	return &YearCache{kv: kv, next: next, ttl: ttl, log: log}
}

func yearKey(lat, long float64, year int) string {
	return fmt.Sprintf("weather:archive:%.4f:%.4f:%d", lat, long, year)
}

// YearHourly returns the cached year or fetches and stores it. Cache
// failures fall through to the archive.
func (c *YearCache) YearHourly(ctx context.Context, lat, long float64, year int) (*models.Forecast, error) {
	key := yearKey(lat, long, year)

	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var f models.Forecast
		if jerr := json.Unmarshal(raw, &f); jerr == nil {
			c.log.Debug("weather year cache hit", zap.String("key", key))
			return &f, nil
		}
		c.log.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("weather cache read failed", zap.String("key", key), zap.Error(err))
	}

	f, err := c.next.YearHourly(ctx, lat, long, year)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(f)
	if err != nil {
		return f, nil
	}
	if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("weather cache write failed", zap.String("key", key), zap.Error(err))
	}
	return f, nil
}
