// Package cache holds the per-channel snapshot state that the diff engine
// compares fetched results against.
//
// The cache is bounded two ways as a memory-safety backstop: entries that
// have not been touched within the idle TTL are dropped, and the entry
// count is capped with oldest-access eviction. Neither bound replaces
// explicit invalidation on disable; they only protect against unbounded
// growth when channels are enabled and forgotten.
//
// Only the diff engine mutates [State] values; the rest of the system
// treats them as read-only.
package cache

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an untouched entry survives.
	DefaultTTL = 10 * time.Minute

	// DefaultMaxEntries caps the number of cached channels.
	DefaultMaxEntries = 10_000
)

// Cache is a bounded, thread-safe map of channel id to [State].
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
}

type entry struct {
	state      *State
	lastAccess time.Time
}

// New creates a [Cache] with the given idle TTL and entry cap.
// Non-positive values fall back to [DefaultTTL] and [DefaultMaxEntries].
func New(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// GetOrCreate returns the [State] for id, creating an empty one if absent.
// The access refreshes the entry's TTL. If name is non-empty and the state
// has no display name yet, the name is recorded.
func (c *Cache) GetOrCreate(id, name string) *State {
	now := time.Now()

	c.mu.Lock()
	c.pruneLocked(now)

	e, ok := c.entries[id]
	if !ok {
		e = &entry{state: &State{}}
		c.entries[id] = e
	}
	e.lastAccess = now
	st := e.state
	c.mu.Unlock()

	if name != "" {
		st.SetUserNameIfEmpty(name)
	}
	return st
}

// Get returns the [State] for id if present and not expired.
// The access refreshes the entry's TTL.
func (c *Cache) Get(id string) (*State, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastAccess) > c.ttl {
		delete(c.entries, id)
		return nil, false
	}
	e.lastAccess = now
	return e.state, true
}

// Invalidate removes the entry for id, if any.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the current entry count, after dropping expired entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(time.Now())
	return len(c.entries)
}

// pruneLocked drops expired entries and, if the cache is still over its
// cap, evicts the least recently accessed entries. Caller holds c.mu.
func (c *Cache) pruneLocked(now time.Time) {
	for id, e := range c.entries {
		if now.Sub(e.lastAccess) > c.ttl {
			delete(c.entries, id)
		}
	}

	for len(c.entries) >= c.maxEntries {
		var oldestID string
		var oldest time.Time
		first := true
		for id, e := range c.entries {
			if first || e.lastAccess.Before(oldest) {
				oldestID, oldest = id, e.lastAccess
				first = false
			}
		}
		delete(c.entries, oldestID)
	}
}
