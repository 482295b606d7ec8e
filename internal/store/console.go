package store

import (
	"sync"
	"time"
)

// DefaultConsoleCap bounds retained console entries; the oldest are dropped
// first once the cap is exceeded.
const DefaultConsoleCap = 1000

// ConsoleEntry is one browser console line.
type ConsoleEntry struct {
	Level string    `yaml:"level" json:"level"`
	Text  string    `yaml:"text"  json:"text"`
	Time  time.Time `yaml:"time"  json:"time"`
}

// ConsoleLog is a bounded, ordered sequence of console entries.
type ConsoleLog struct {
	mu      sync.Mutex
	entries []ConsoleEntry
	cap     int
	dropped int64
}

// NewConsoleLog creates a log. capN <= 0 uses DefaultConsoleCap.
func NewConsoleLog(capN int) *ConsoleLog {
	if capN <= 0 {
		capN = DefaultConsoleCap
	}
	return &ConsoleLog{cap: capN}
}

// Append adds an entry, evicting the oldest if the cap is reached.
func (c *ConsoleLog) Append(level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.cap {
		over := len(c.entries) - c.cap + 1
		c.entries = c.entries[over:]
		c.dropped += int64(over)
	}
	c.entries = append(c.entries, ConsoleEntry{Level: level, Text: text, Time: time.Now()})
}

// Tail returns up to n most recent entries in chronological order.
// n <= 0 returns everything retained.
func (c *ConsoleLog) Tail(n int) []ConsoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || n > len(c.entries) {
		n = len(c.entries)
	}
	out := make([]ConsoleEntry, n)
	copy(out, c.entries[len(c.entries)-n:])
	return out
}

// Len returns the number of retained entries.
func (c *ConsoleLog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Dropped returns how many entries retention has evicted.
func (c *ConsoleLog) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
