package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"staticfund-api/internal/metrics"
	"staticfund-api/pkg/logging/logging"
)

// AdviceCache is what the advice service sees of a category cache.
type AdviceCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Clear()
	Len() int
	Stats() Stats
}

// LoggingCache wraps an LRU with request-scoped logging and hit/miss metrics.
type LoggingCache struct {
	inner    *LRU
	category string
}

// NewLoggingCache returns a cache that logs and records metrics under category.
func NewLoggingCache(inner *LRU, category string) *LoggingCache {
	return &LoggingCache{inner: inner, category: category}
}

func (c *LoggingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	start := time.Now()
	value, ok := c.inner.Get(key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	if ok {
		result = "hit"
	}
	metrics.CacheRequestsTotal.WithLabelValues(c.category, result).Inc()

	logging.L(ctx).Debug("advice_cache_get",
		zap.String("cache_category", c.category),
		zap.String("cache_key", key),
		zap.String("cache_result", result),
		zap.Float64("latency_ms", latencyMs),
	)

	return value, ok
}

func (c *LoggingCache) Set(ctx context.Context, key string, value []byte) {
	c.inner.Set(key, value)

	logging.L(ctx).Debug("advice_cache_set",
		zap.String("cache_category", c.category),
		zap.String("cache_key", key),
		zap.Int("value_bytes", len(value)),
		zap.Int("size", c.inner.Len()),
	)
}

func (c *LoggingCache) Clear()       { c.inner.Clear() }
func (c *LoggingCache) Len() int     { return c.inner.Len() }
func (c *LoggingCache) Stats() Stats { return c.inner.Stats() }

// Category returns the label this cache reports under.
func (c *LoggingCache) Category() string { return c.category }
