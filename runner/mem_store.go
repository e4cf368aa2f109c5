package runner

import (
	"fmt"
	"sync"
)

const defaultMaxHistorySize = 100

// MemoryStore keeps run history in memory only.
type MemoryStore struct {
	runs     []RunSummary
	maxCount int
	mu       sync.Mutex
}

// NewMemoryStore creates a store that keeps the latest maxCount runs.
// maxCount <= 0 selects the default of 100.
func NewMemoryStore(maxCount int) *MemoryStore {
	if maxCount <= 0 {
		maxCount = defaultMaxHistorySize
	}
	return &MemoryStore{
		runs:     make([]RunSummary, 0),
		maxCount: maxCount,
	}
}

// History returns a copy of all runs, most recent first.
func (s *MemoryStore) History() []RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunSummary, len(s.runs))
	copy(result, s.runs)
	return result
}

// Get returns the run with the given ID.
func (s *MemoryStore) Get(id string) (RunSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, run := range s.runs {
		if run.ID == id {
			return run, true
		}
	}
	return RunSummary{}, false
}

// Save stores a run, evicting the oldest once maxCount is exceeded.
func (s *MemoryStore) Save(summary RunSummary) error {
	if summary.ID == "" {
		return fmt.Errorf("cannot save run without ID")
	}
	if summary.StartedAt == nil {
		return fmt.Errorf("cannot save run without start time")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Prepend to keep most recent first
	s.runs = append([]RunSummary{summary}, s.runs...)
	if len(s.runs) > s.maxCount {
		s.runs = s.runs[:s.maxCount]
	}
	return nil
}
