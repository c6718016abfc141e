package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edukita/gradebook-api/internal/ingest"
)

type scaleSource interface {
	GetScale(ctx context.Context, academicLevelID string) (ingest.Scale, error)
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ScaleCache fronts academic level scale lookups with Redis. Scales are hot,
// read-only reference data consulted once per row during ingestion, so cache
// failures degrade to the database rather than failing the row.
type ScaleCache struct {
	source  scaleSource
	client  *redis.Client
	ttl     time.Duration
	metrics cacheRecorder
	logger  *zap.Logger
}

// NewScaleCache constructs a scale cache. A nil client disables caching; a
// nil recorder disables hit/miss accounting.
func NewScaleCache(source scaleSource, client *redis.Client, ttl time.Duration, metrics cacheRecorder, logger *zap.Logger) *ScaleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScaleCache{source: source, client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// GetScale returns the grading scale for an academic level, from cache when
// possible. Every lookup against a live client is counted as a hit or miss.
func (c *ScaleCache) GetScale(ctx context.Context, academicLevelID string) (ingest.Scale, error) {
	key := scaleCacheKey(academicLevelID)

	if c.client != nil {
		start := time.Now()
		raw, err := c.client.Get(ctx, key).Bytes()
		elapsed := time.Since(start)
		if err == nil {
			var scale ingest.Scale
			if err := json.Unmarshal(raw, &scale); err == nil {
				c.recordLookup(true, elapsed)
				return scale, nil
			}
			c.logger.Warn("corrupt scale cache entry", zap.String("key", key))
		} else if err != redis.Nil {
			c.logger.Warn("scale cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.recordLookup(false, elapsed)
	}

	scale, err := c.source.GetScale(ctx, academicLevelID)
	if err != nil {
		return ingest.Scale{}, err
	}

	if c.client != nil {
		payload, err := json.Marshal(scale)
		if err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("scale cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return scale, nil
}

func (c *ScaleCache) recordLookup(hit bool, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(hit, elapsed)
	}
}

func scaleCacheKey(academicLevelID string) string {
	return fmt.Sprintf("scale:%s", academicLevelID)
}
