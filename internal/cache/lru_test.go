package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU(10, time.Minute)

	c.Set("k", []byte("v"))

	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected hit after Set")
	}
	if string(got) != "v" {
		t.Fatalf("expected 'v', got %q", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU(10, time.Hour, WithClock(clock.Now))

	c.Set("k", []byte("v"))

	clock.Advance(time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry should still be valid exactly at expiry")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be purged on Get, len=%d", c.Len())
	}
}

func TestLRU_TTLExpiryRealClock(t *testing.T) {
	c := NewLRU(10, 20*time.Millisecond)
	c.Set("k", []byte("v"))

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after TTL expiry")
	}
}

func TestLRU_CapacityEvictsFirstInserted(t *testing.T) {
	const capacity = 5
	c := NewLRU(capacity, time.Hour)

	for i := 0; i <= capacity; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	if c.Len() != capacity {
		t.Fatalf("expected len %d, got %d", capacity, c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("first inserted key should have been evicted")
	}
	for i := 1; i <= capacity; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Fatalf("k%d should still be present", i)
		}
	}
}

func TestLRU_GetTouchesEntry(t *testing.T) {
	c := NewLRU(2, time.Hour)

	c.Set("A", []byte("a"))
	c.Set("B", []byte("b"))

	if _, ok := c.Get("A"); !ok {
		t.Fatalf("expected hit on A")
	}

	c.Set("C", []byte("c"))

	if _, ok := c.Get("B"); ok {
		t.Fatalf("B should have been evicted")
	}
	if _, ok := c.Get("A"); !ok {
		t.Fatalf("A was touched and should survive")
	}
	if _, ok := c.Get("C"); !ok {
		t.Fatalf("C should be present")
	}
}

func TestLRU_ReplaceDoesNotEvict(t *testing.T) {
	c := NewLRU(2, time.Hour)

	c.Set("A", []byte("a"))
	c.Set("B", []byte("b"))
	c.Set("A", []byte("a2"))

	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
	got, ok := c.Get("A")
	if !ok || string(got) != "a2" {
		t.Fatalf("expected replaced value a2, got %q ok=%v", got, ok)
	}

	// A was refreshed by the replace, so B is now the eviction candidate.
	c.Set("C", []byte("c"))
	if _, ok := c.Get("B"); ok {
		t.Fatalf("B should have been evicted")
	}
}

func TestLRU_ReplaceRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU(2, time.Minute, WithClock(clock.Now))

	c.Set("k", []byte("v1"))
	clock.Advance(50 * time.Second)
	c.Set("k", []byte("v2"))
	clock.Advance(50 * time.Second)

	if got, ok := c.Get("k"); !ok || string(got) != "v2" {
		t.Fatalf("expected refreshed entry, got %q ok=%v", got, ok)
	}
}

func TestLRU_StatsIsReadOnly(t *testing.T) {
	clock := newFakeClock()
	c := NewLRU(10, time.Minute, WithClock(clock.Now))

	c.Set("old", []byte("1"))
	clock.Advance(2 * time.Minute)
	c.Set("new", []byte("2"))

	s := c.Stats()
	if s.Valid != 1 || s.Expired != 1 || s.Total != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if c.Len() != 2 {
		t.Fatalf("Stats must not purge, len=%d", c.Len())
	}
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU(3, time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	c.Set("c", nil)
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "c" {
		t.Fatalf("unexpected keys after clear: %v", keys)
	}
}

func TestLRU_KeysOrder(t *testing.T) {
	c := NewLRU(3, time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)
	c.Set("c", nil)
	c.Get("a")

	keys := c.Keys()
	want := []string{"a", "c", "b"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	const capacity = 16
	c := NewLRU(capacity, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-%d", g, i%32)
				c.Set(key, []byte(key))
				c.Get(key)
				_ = c.Stats()
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > capacity {
		t.Fatalf("len %d exceeds capacity %d", c.Len(), capacity)
	}
}

func TestLoggingCache_DelegatesToLRU(t *testing.T) {
	c := New("tips", Config{Capacity: 2, TTL: time.Minute})
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss")
	}
	c.Set(ctx, "k", []byte(`{"tips":[]}`))
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != `{"tips":[]}` {
		t.Fatalf("unexpected hit result %q ok=%v", got, ok)
	}
	if c.Category() != "tips" {
		t.Fatalf("unexpected category %q", c.Category())
	}
	if s := c.Stats(); s.Total != 1 || s.Valid != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
