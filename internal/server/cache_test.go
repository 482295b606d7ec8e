package server

import (
	"testing"
	"time"
)

func TestSnapshotCacheHit(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	c.Put(0, false, "outline")

	if text, ok := c.Get(0, false); !ok || text != "outline" {
		t.Errorf("Get = %q, %v", text, ok)
	}
	// Different tab or hidden flag is a different snapshot.
	if _, ok := c.Get(1, false); ok {
		t.Error("other tab should miss")
	}
	if _, ok := c.Get(0, true); ok {
		t.Error("hidden variant should miss")
	}
}

func TestSnapshotCacheExpiry(t *testing.T) {
	c := NewSnapshotCache(time.Millisecond)
	c.Put(0, false, "outline")
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(0, false); ok {
		t.Error("expired entry served")
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	c.Put(0, false, "outline")
	c.Invalidate()
	if _, ok := c.Get(0, false); ok {
		t.Error("invalidated entry served")
	}
}

func TestSnapshotCacheDisabled(t *testing.T) {
	c := NewSnapshotCache(0)
	c.Put(0, false, "outline")
	if _, ok := c.Get(0, false); ok {
		t.Error("ttl 0 must disable caching")
	}
}
