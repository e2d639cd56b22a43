// Package cache holds the most recently computed health artifact per user.
//
// The cache is advisory only: a miss means "recompute from the aggregator",
// never "no data exists". Entries expire after a bounded lifetime.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the default lifetime of a cached snapshot.
const DefaultTTL = time.Hour

type entry struct {
	value     any
	expiresAt time.Time
}

// SnapshotCache is a mutex-guarded per-user artifact cache with TTL expiry.
type SnapshotCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a snapshot cache. A non-positive defaultTTL falls back to DefaultTTL.
func New(defaultTTL time.Duration) *SnapshotCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &SnapshotCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Put stores the artifact for the user. A non-positive ttl uses the cache default.
func (c *SnapshotCache) Put(userID string, artifact any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[userID] = entry{value: artifact, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	slog.Debug("SnapshotCache.Put: snapshot stored", "userID", userID, "ttl", ttl)
}

// Get returns the cached artifact for the user, or false on a miss or an
// expired entry.
func (c *SnapshotCache) Get(userID string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if cur, ok := c.entries[userID]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Invalidate drops the cached artifact for the user.
func (c *SnapshotCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Sweep removes all expired entries and reports how many were dropped.
func (c *SnapshotCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Clear empties the cache.
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
