package logging

import (
	"sort"
	"sync"
	"time"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Time       time.Time              `json:"time"`
	Step       string                 `json:"step"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Attributes map[string]interface{} `json:"attributes"`
}

// LogCollector stores captured log entries grouped by step name.
// It is safe for concurrent use.
type LogCollector struct {
	mu   sync.RWMutex
	logs map[string][]LogEntry
}

// NewLogCollector creates an empty LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[string][]LogEntry),
	}
}

// Add appends an entry for entry.Step.
func (c *LogCollector) Add(entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs[entry.Step] = append(c.logs[entry.Step], entry)
}

// Logs returns a copy of the entries captured for step.
func (c *LogCollector) Logs(step string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, ok := c.logs[step]
	if !ok {
		return nil
	}
	out := make([]LogEntry, len(logs))
	copy(out, logs)
	return out
}

// All returns a copy of every captured entry grouped by step.
func (c *LogCollector) All() map[string][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]LogEntry, len(c.logs))
	for step, logs := range c.logs {
		cp := make([]LogEntry, len(logs))
		copy(cp, logs)
		out[step] = cp
	}
	return out
}

// Steps returns the names of steps with captured entries, sorted.
func (c *LogCollector) Steps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	steps := make([]string, 0, len(c.logs))
	for step := range c.logs {
		steps = append(steps, step)
	}
	sort.Strings(steps)
	return steps
}

// Clear drops all captured entries.
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = make(map[string][]LogEntry)
}
