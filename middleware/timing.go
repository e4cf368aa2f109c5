package middleware

import (
	"sync"
	"time"

	"github.com/nomis52/eventchain/chain"
)

// Timings records the most recent duration of each step.
type Timings struct {
	mu        sync.RWMutex
	durations map[string]time.Duration
	order     []string
}

// NewTimings creates an empty Timings.
func NewTimings() *Timings {
	return &Timings{durations: make(map[string]time.Duration)}
}

// Record stores d as the latest duration of step.
func (t *Timings) Record(step string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.durations[step]; !ok {
		t.order = append(t.order, step)
	}
	t.durations[step] = d
}

// Get returns the latest duration of step.
func (t *Timings) Get(step string) (time.Duration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.durations[step]
	return d, ok
}

// Steps returns the timed steps in the order they were first recorded.
func (t *Timings) Steps() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Total returns the sum of the latest duration of every step.
func (t *Timings) Total() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total time.Duration
	for _, d := range t.durations {
		total += d
	}
	return total
}

// Reset forgets all recorded durations.
func (t *Timings) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.durations)
	t.order = nil
}

// Timing measures how long the inner layers take for each step and records
// it in timings. Short-circuited steps are timed too.
func Timing(timings *Timings) chain.Middleware {
	return chain.MiddlewareFunc(func(c *chain.Context, next chain.Handler) chain.Outcome {
		start := time.Now()
		out := next(c)
		timings.Record(stepName(c), time.Since(start))
		return out
	})
}
