// Package ratelimit implements fixed-window request limits with an
// in-process or a Redis-backed counter store.
package ratelimit

import (
	"context"
	"time"
)

// Policy is one named fixed-window limit.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
	// SkipSuccessful refunds requests that end below HTTP 400, so only
	// failures count towards the limit.
	SkipSuccessful bool
	Message        string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time left in the current window.
	ResetAfter time.Duration
}

// Limiter counts requests per key under a single policy.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	// Refund gives back one request in key's current window.
	Refund(ctx context.Context, key string) error
	Policy() Policy
}

// PolicyConfig sizes a policy from configuration.
type PolicyConfig struct {
	Limit  int           `yaml:"limit" validate:"omitempty,min=1"`
	Window time.Duration `yaml:"window" validate:"omitempty,gt=0"`
}

var (
	APIPolicy = Policy{
		Name: "api", Limit: 100, Window: time.Minute,
		Message: "Too many requests, please try again later",
	}
	LoginPolicy = Policy{
		Name: "login", Limit: 5, Window: 15 * time.Minute, SkipSuccessful: true,
		Message: "Too many login attempts, please try again in 15 minutes",
	}
	RegisterPolicy = Policy{
		Name: "register", Limit: 3, Window: time.Hour,
		Message: "Too many registration attempts, please try again later",
	}
	GeminiPolicy = Policy{
		Name: "gemini", Limit: 10, Window: time.Minute,
		Message: "AI request limit reached, please wait a moment",
	}
)

// With returns p resized by cfg; zero fields keep p's values.
func (p Policy) With(cfg PolicyConfig) Policy {
	if cfg.Limit > 0 {
		p.Limit = cfg.Limit
	}
	if cfg.Window > 0 {
		p.Window = cfg.Window
	}
	return p
}

func decide(limit, count int, resetAfter time.Duration) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}
