package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a bounded in-memory cache with per-entry TTL.
//
// Recency is tracked with a doubly-linked list: Front is the most recently
// used entry, Back the least. Insertion and a successful Get both count as a
// use. Expiry is lazy: entries are only purged when a Get finds them stale,
// there is no background sweep.
type LRU struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// Stats is a point-in-time classification of stored entries.
type Stats struct {
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
	Total   int `json:"total"`
}

// Option configures an LRU.
type Option func(*LRU)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *LRU) {
		if now != nil {
			c.now = now
		}
	}
}

// NewLRU creates a cache holding at most capacity entries, each valid for ttl
// after it was last written. A capacity below 1 is raised to 1.
func NewLRU(capacity int, ttl time.Duration, opts ...Option) *LRU {
	if capacity < 1 {
		capacity = 1
	}
	c := &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key. Unknown and expired keys report false; an
// expired entry is removed as a side effect. A hit becomes most recently used.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*lruEntry)
	if c.now().After(e.expiresAt) {
		c.removeElement(el)
		return nil, false
	}

	c.order.MoveToFront(el)
	return e.value, true
}

// Set inserts or replaces key with a fresh expiry. Inserting a new key into a
// full cache first evicts the least recently used entry.
func (c *LRU) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*lruEntry)
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	if len(c.items) >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	c.items[key] = c.order.PushFront(&lruEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet purged.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured bound.
func (c *LRU) Capacity() int {
	return c.capacity
}

// Stats scans all entries without purging anything.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var s Stats
	for _, el := range c.items {
		if now.After(el.Value.(*lruEntry).expiresAt) {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	s.Total = len(c.items)
	return s
}

// Keys lists keys from most to least recently used.
func (c *LRU) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*lruEntry).key)
	}
	return out
}

func (c *LRU) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*lruEntry).key)
}
