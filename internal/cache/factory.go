package cache

import "time"

// Config sizes one category cache.
type Config struct {
	Capacity int           `yaml:"capacity" validate:"min=1"`
	TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
}

// New builds the instrumented cache for one advice category.
func New(category string, cfg Config, opts ...Option) *LoggingCache {
	return NewLoggingCache(NewLRU(cfg.Capacity, cfg.TTL, opts...), category)
}
