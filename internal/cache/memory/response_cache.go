// Package memory provides the in-process response cache used by the upstream
// request executor.
package memory

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// entry is one cached response. storedAt drives lazy TTL eviction; elem points
// into the recency list when a capacity bound is configured.
type entry struct {
	value    json.RawMessage
	storedAt time.Time
	elem     *list.Element
}

// ResponseCache is a TTL cache with lazy eviction: an expired entry is removed
// on the Get that observes it, never by a background sweep. An optional
// capacity bound evicts the least-recently-used entry on insert; capacity 0
// means unbounded.
//
// A single mutex serializes Get and Put so that an expiry-check-then-delete
// cannot race a concurrent insert on the same key.
type ResponseCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*entry
	recency  *list.List // front = most recently used; element value is the key

	now func() time.Time
}

// New creates a ResponseCache with the given TTL and capacity bound.
// capacity <= 0 disables the bound.
func New(ttl time.Duration, capacity int) *ResponseCache {
	return &ResponseCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*entry),
		recency:  list.New(),
		now:      time.Now,
	}
}

// Get returns the live value for key. An entry older than the TTL is treated
// as absent and removed as a side effect.
func (c *ResponseCache) Get(_ context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.remove(key, e)
		return nil, false
	}
	c.recency.MoveToFront(e.elem)
	return e.value, true
}

// Put stores value under key, overwriting any previous entry and resetting its
// age. When the capacity bound is reached the least-recently-used entry is
// evicted first.
func (c *ResponseCache) Put(_ context.Context, key string, value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.storedAt = c.now()
		c.recency.MoveToFront(e.elem)
		return
	}

	if c.capacity > 0 && len(c.entries) >= c.capacity {
		if oldest := c.recency.Back(); oldest != nil {
			oldKey := oldest.Value.(string)
			c.remove(oldKey, c.entries[oldKey])
		}
	}

	c.entries[key] = &entry{
		value:    value,
		storedAt: c.now(),
		elem:     c.recency.PushFront(key),
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the mutex held.
func (c *ResponseCache) remove(key string, e *entry) {
	c.recency.Remove(e.elem)
	delete(c.entries, key)
}

// Compile-time interface check.
var _ domain.ResponseCache = (*ResponseCache)(nil)
