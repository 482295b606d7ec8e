// Package store holds the in-memory artifacts a browser session accumulates:
// screenshots, downloads, and console output. Each store is independently
// locked so readers (e.g. an MCP resource fetch) never contend with
// unrelated writers.
package store

import (
	"sort"
	"sync"
	"time"
)

// ScreenshotSource says what a capture covered.
type ScreenshotSource string

const (
	SourceViewport ScreenshotSource = "viewport"
	SourceFullPage ScreenshotSource = "full_page"
	SourceElement  ScreenshotSource = "element"
)

// ScreenshotMeta describes a stored capture.
type ScreenshotMeta struct {
	Name       string           `yaml:"name"       json:"name"`
	Width      int              `yaml:"width"      json:"width"`
	Height     int              `yaml:"height"     json:"height"`
	Bytes      int              `yaml:"bytes"      json:"bytes"`
	CapturedAt time.Time        `yaml:"captured_at" json:"captured_at"`
	Source     ScreenshotSource `yaml:"source"     json:"source"`
}

// DefaultScreenshotBudget caps retained screenshot bytes before the least
// recently used captures are evicted.
const DefaultScreenshotBudget = 64 << 20 // 64 MiB

type screenshotEntry struct {
	data     []byte
	meta     ScreenshotMeta
	lastUsed time.Time
}

// Screenshots is a named blob store with an LRU byte budget.
type Screenshots struct {
	mu       sync.Mutex
	entries  map[string]*screenshotEntry
	total    int64
	maxBytes int64
}

// NewScreenshots creates a store. maxBytes <= 0 uses DefaultScreenshotBudget.
func NewScreenshots(maxBytes int64) *Screenshots {
	if maxBytes <= 0 {
		maxBytes = DefaultScreenshotBudget
	}
	return &Screenshots{
		entries:  make(map[string]*screenshotEntry),
		maxBytes: maxBytes,
	}
}

// Put stores a capture under meta.Name, replacing any previous blob with the
// same name, then evicts least-recently-used entries until within budget.
func (s *Screenshots) Put(data []byte, meta ScreenshotMeta) {
	meta.Bytes = len(data)
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[meta.Name]; ok {
		s.total -= int64(len(old.data))
	}
	s.entries[meta.Name] = &screenshotEntry{data: data, meta: meta, lastUsed: time.Now()}
	s.total += int64(len(data))
	s.evictLocked()
}

// Get returns the blob and metadata for name, refreshing its LRU position.
func (s *Screenshots) Get(name string) ([]byte, ScreenshotMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, ScreenshotMeta{}, false
	}
	e.lastUsed = time.Now()
	return e.data, e.meta, true
}

// List returns metadata for all retained captures, newest first.
func (s *Screenshots) List() []ScreenshotMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	metas := make([]ScreenshotMeta, 0, len(s.entries))
	for _, e := range s.entries {
		metas = append(metas, e.meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CapturedAt.After(metas[j].CapturedAt)
	})
	return metas
}

// evictLocked drops least-recently-used entries until total fits the budget.
// The newest entry always survives, even if it alone exceeds the budget.
func (s *Screenshots) evictLocked() {
	for s.total > s.maxBytes && len(s.entries) > 1 {
		var oldestName string
		var oldest time.Time
		for name, e := range s.entries {
			if oldestName == "" || e.lastUsed.Before(oldest) {
				oldestName = name
				oldest = e.lastUsed
			}
		}
		s.total -= int64(len(s.entries[oldestName].data))
		delete(s.entries, oldestName)
	}
}
