package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testPolicy = Policy{Name: "test", Limit: 3, Window: time.Minute}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(testPolicy, WithMemoryClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, _ := l.Allow(ctx, "1.2.3.4")
		if !d.Allowed || d.Remaining != 3-i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}

	d, _ := l.Allow(ctx, "1.2.3.4")
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("fourth request should be denied: %+v", d)
	}
	if d.ResetAfter != time.Minute {
		t.Fatalf("expected full window left, got %v", d.ResetAfter)
	}

	if d, _ := l.Allow(ctx, "5.6.7.8"); !d.Allowed {
		t.Fatalf("keys must not share a window")
	}

	clock.Advance(time.Minute)
	if d, _ := l.Allow(ctx, "1.2.3.4"); !d.Allowed || d.Remaining != 2 {
		t.Fatalf("new window should start fresh: %+v", d)
	}
}

func TestMemoryLimiter_Refund(t *testing.T) {
	l := NewMemoryLimiter(testPolicy)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if d, _ := l.Allow(ctx, "k"); !d.Allowed {
			t.Fatalf("refunded requests must not count, denied at %d", i)
		}
		_ = l.Refund(ctx, "k")
	}

	// Refunding an unknown key is harmless.
	if err := l.Refund(ctx, "unknown"); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	l := NewMemoryLimiter(testPolicy, WithMemoryClock(clock.Now))
	ctx := context.Background()

	l.Allow(ctx, "a")
	l.Allow(ctx, "b")
	if n := l.Sweep(); n != 0 {
		t.Fatalf("nothing should expire yet, removed %d", n)
	}

	clock.Advance(2 * time.Minute)
	if n := l.Sweep(); n != 2 {
		t.Fatalf("expected 2 expired windows, removed %d", n)
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, testPolicy, "staticfund")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !d.Allowed || d.Remaining != 3-i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}

	d, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Fatalf("fourth request should be denied")
	}

	if !mr.Exists("staticfund:test:1.2.3.4") {
		t.Fatalf("expected namespaced key, have %v", mr.Keys())
	}
	if ttl := mr.TTL("staticfund:test:1.2.3.4"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("window expiry not set, ttl=%v", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if d, _ := l.Allow(ctx, "1.2.3.4"); !d.Allowed || d.Remaining != 2 {
		t.Fatalf("expected fresh window after expiry: %+v", d)
	}
}

func TestRedisLimiter_Refund(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, testPolicy, "")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if d, _ := l.Allow(ctx, "k"); !d.Allowed {
			t.Fatalf("refunded requests must not count, denied at %d", i)
		}
		if err := l.Refund(ctx, "k"); err != nil {
			t.Fatal(err)
		}
	}

	if err := l.Refund(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("test:gone") {
		t.Fatalf("refund of an expired window must not leave a negative counter")
	}
}

func TestRedisLimiter_ErrorsWhenRedisDown(t *testing.T) {
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, testPolicy, "")
	mr.Close()

	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Fatalf("expected error with redis down")
	}
}

func TestNewSet(t *testing.T) {
	s, err := NewSet(context.Background(), Config{Backend: BackendMemory, Login: PolicyConfig{Limit: 9}})
	if err != nil {
		t.Fatal(err)
	}
	if p := s.Login.Policy(); p.Limit != 9 || p.Window != 15*time.Minute || !p.SkipSuccessful {
		t.Fatalf("login policy not merged with config: %+v", p)
	}
	if p := s.Gemini.Policy(); p.Limit != 10 || p.Window != time.Minute {
		t.Fatalf("unexpected gemini policy %+v", p)
	}

	mr := miniredis.RunT(t)
	rs, err := NewSet(context.Background(), Config{Backend: BackendRedis, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()
	if _, ok := rs.API.(*RedisLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", rs.API)
	}

	if _, err := NewSet(context.Background(), Config{Backend: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestSet_JanitorStopsWithContext(t *testing.T) {
	s, _ := NewSet(context.Background(), Config{Backend: BackendMemory})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Janitor(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("janitor did not stop")
	}
}
