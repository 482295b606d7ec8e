package server

import (
	"sync"
	"time"
)

// SnapshotCache memoizes the rendered page outline for a short window, so an
// agent issuing snapshot-then-act bursts does not rebuild the element index
// on every call. Any write action invalidates it.
type SnapshotCache struct {
	mu       sync.Mutex
	text     string
	tabIndex int
	hidden   bool
	at       time.Time
	ttl      time.Duration
}

// NewSnapshotCache creates a cache. A ttl of 0 disables caching.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{ttl: ttl, tabIndex: -1}
}

// Get returns the cached outline for the tab when still fresh.
func (c *SnapshotCache) Get(tabIndex int, hidden bool) (string, bool) {
	if c.ttl == 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tabIndex != tabIndex || c.hidden != hidden || c.text == "" {
		return "", false
	}
	if time.Since(c.at) > c.ttl {
		return "", false
	}
	return c.text, true
}

// Put stores a fresh outline.
func (c *SnapshotCache) Put(tabIndex int, hidden bool, text string) {
	if c.ttl == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabIndex = tabIndex
	c.hidden = hidden
	c.text = text
	c.at = time.Now()
}

// Invalidate drops the cached outline. Called after any action that can
// change the page.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = ""
	c.tabIndex = -1
}
