package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"berry-advisory-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	cultivarListKey = "advisory:cultivar_labels"
	cultivarListTTL = 15 * time.Minute
)

// CultivarCache keeps the distinct cultivar labels from the knowledge base
// in Redis so the classifier prompt does not hit Postgres on every message.
// With a nil client it degrades to a pass-through.
type CultivarCache struct {
	rdb    *redis.Client
	loader func(ctx context.Context) ([]string, error)
	logger logger.ILogger
}

func NewCultivarCache(rdb *redis.Client, loader func(ctx context.Context) ([]string, error), log logger.ILogger) *CultivarCache {
	return &CultivarCache{
		rdb:    rdb,
		loader: loader,
		logger: log,
	}
}

// ListCultivars implements classify.CultivarSource.
func (c *CultivarCache) ListCultivars(ctx context.Context) ([]string, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cultivarListKey).Result(); err == nil {
			var labels []string
			if err := json.Unmarshal([]byte(raw), &labels); err == nil {
				return labels, nil
			}
			// Corrupt payload, fall through and rebuild.
			c.rdb.Del(ctx, cultivarListKey)
		}
	}

	labels, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if data, err := json.Marshal(labels); err == nil {
			if err := c.rdb.Set(ctx, cultivarListKey, data, cultivarListTTL).Err(); err != nil {
				c.logger.Warn("CultivarCache", "Failed to cache cultivar labels", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return labels, nil
}

// Invalidate drops the cached list. Called after knowledge base writes.
func (c *CultivarCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cultivarListKey).Err(); err != nil {
		c.logger.Warn("CultivarCache", "Failed to invalidate cultivar labels", map[string]interface{}{"error": err.Error()})
	}
}
