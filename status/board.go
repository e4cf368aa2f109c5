package status

import (
	"sort"
	"sync"
)

// Board stores the latest status message of each step, keyed by step
// display name. It is shared by all Lines of a chain.
type Board struct {
	statuses map[string]string
	mu       sync.RWMutex
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{
		statuses: make(map[string]string),
	}
}

// Set updates the status of step.
func (b *Board) Set(step, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[step] = status
}

// Get returns the status of step, or "" if none was reported.
func (b *Board) Get(step string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.statuses[step]
}

// All returns a copy of every step's status.
func (b *Board) All() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(b.statuses))
	for k, v := range b.statuses {
		out[k] = v
	}
	return out
}

// Steps returns the names of all steps with a status, sorted.
func (b *Board) Steps() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	steps := make([]string, 0, len(b.statuses))
	for k := range b.statuses {
		steps = append(steps, k)
	}
	sort.Strings(steps)
	return steps
}

// Reset forgets every status. Called between runs.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.statuses)
}
