package cache

import (
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) (*SnapshotCache, *time.Time) {
	c := New(ttl)
	current := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func TestPutAndGet(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put("u1", "snapshot", 0)

	got, ok := c.Get("u1")
	if !ok || got != "snapshot" {
		t.Errorf("Expected cached snapshot, got %v (hit=%v)", got, ok)
	}

	if _, ok := c.Get("u2"); ok {
		t.Error("Expected miss for unknown user")
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c, current := newTestCache(time.Hour)
	c.Put("u1", "snapshot", 0)

	*current = current.Add(time.Hour + time.Minute)
	if _, ok := c.Get("u1"); ok {
		t.Error("Expected expired entry to be a miss")
	}
}

func TestPutCustomTTLOverridesDefault(t *testing.T) {
	c, current := newTestCache(time.Hour)
	c.Put("u1", "snapshot", 10*time.Minute)

	*current = current.Add(11 * time.Minute)
	if _, ok := c.Get("u1"); ok {
		t.Error("Expected entry expired under its custom TTL")
	}
}

func TestPutRefreshesExpiry(t *testing.T) {
	c, current := newTestCache(time.Hour)
	c.Put("u1", "old", 0)
	*current = current.Add(50 * time.Minute)
	c.Put("u1", "new", 0)

	*current = current.Add(30 * time.Minute)
	got, ok := c.Get("u1")
	if !ok || got != "new" {
		t.Errorf("Expected refreshed entry to survive, got %v (hit=%v)", got, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put("u1", "snapshot", 0)
	c.Invalidate("u1")
	if _, ok := c.Get("u1"); ok {
		t.Error("Expected invalidated entry to be gone")
	}
}

func TestSweep(t *testing.T) {
	c, current := newTestCache(time.Hour)
	c.Put("u1", "a", 10*time.Minute)
	c.Put("u2", "b", 2*time.Hour)

	*current = current.Add(time.Hour)
	if dropped := c.Sweep(); dropped != 1 {
		t.Errorf("Expected 1 swept entry, got %d", dropped)
	}
	if _, ok := c.Get("u2"); !ok {
		t.Error("Expected unexpired entry to survive the sweep")
	}
}

func TestNonPositiveDefaultTTLFallsBack(t *testing.T) {
	c := New(0)
	if c.defaultTTL != DefaultTTL {
		t.Errorf("Expected default TTL %v, got %v", DefaultTTL, c.defaultTTL)
	}
}
