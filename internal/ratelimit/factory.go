package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend     string       `yaml:"backend" validate:"oneof=memory redis"`
	RedisAddr   string       `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPrefix string       `yaml:"redis_prefix"`
	API         PolicyConfig `yaml:"api"`
	Login       PolicyConfig `yaml:"login"`
	Register    PolicyConfig `yaml:"register"`
	Gemini      PolicyConfig `yaml:"gemini"`
}

// Set holds the limiter for every policy, all on one backend.
type Set struct {
	API      Limiter
	Login    Limiter
	Register Limiter
	Gemini   Limiter

	client *redis.Client
	memory []*MemoryLimiter
}

// NewSet builds limiters for cfg.Backend. The Redis backend pings once so
// a bad address fails at startup.
func NewSet(ctx context.Context, cfg Config) (*Set, error) {
	policies := []Policy{
		APIPolicy.With(cfg.API),
		LoginPolicy.With(cfg.Login),
		RegisterPolicy.With(cfg.Register),
		GeminiPolicy.With(cfg.Gemini),
	}

	s := &Set{}
	limiters := make([]Limiter, len(policies))

	switch cfg.Backend {
	case BackendMemory, "":
		for i, p := range policies {
			m := NewMemoryLimiter(p)
			s.memory = append(s.memory, m)
			limiters[i] = m
		}
	case BackendRedis:
		s.client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := s.client.Ping(ctx).Err(); err != nil {
			s.client.Close()
			return nil, fmt.Errorf("connect rate limit redis %s: %w", cfg.RedisAddr, err)
		}
		for i, p := range policies {
			limiters[i] = NewRedisLimiter(s.client, p, cfg.RedisPrefix)
		}
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}

	s.API, s.Login, s.Register, s.Gemini = limiters[0], limiters[1], limiters[2], limiters[3]
	return s, nil
}

// Janitor sweeps in-memory windows until ctx is done. It returns at once
// for the Redis backend, where keys expire on their own.
func (s *Set) Janitor(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	for _, m := range s.memory {
		wg.Add(1)
		go func(m *MemoryLimiter) {
			defer wg.Done()
			m.Janitor(ctx, interval)
		}(m)
	}
	wg.Wait()
}

func (s *Set) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
