package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in a map. Expired windows are replaced on
// access and swept by Janitor.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type MemoryOption func(*MemoryLimiter)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

func NewMemoryLimiter(p Policy, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		policy:  p,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLimiter) Policy() Policy { return m.policy }

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.policy.Window)}
		m.windows[key] = w
	}
	w.count++

	return decide(m.policy.Limit, w.count, w.resetAt.Sub(now)), nil
}

func (m *MemoryLimiter) Refund(_ context.Context, key string) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows[key]; ok && now.Before(w.resetAt) && w.count > 0 {
		w.count--
	}
	return nil
}

// Sweep drops expired windows and returns how many were removed.
func (m *MemoryLimiter) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Janitor sweeps every interval until ctx is done.
func (m *MemoryLimiter) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
