package steps

import (
	"fmt"
	"sync"
	"time"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/middleware"
)

// Record is one saved output.
type Record struct {
	RunID string    `json:"run_id"`
	Value int       `json:"value"`
	Time  time.Time `json:"time"`
}

// Sink receives the outputs persisted by Save.
type Sink interface {
	Save(Record) error
}

// Save hands OutputKey to Sink.
type Save struct {
	Sink Sink
}

func (s *Save) Execute(c *chain.Context) chain.Outcome {
	if s.Sink == nil {
		return chain.Failure("no sink configured")
	}
	output, ok := chain.Get[int](c, OutputKey)
	if !ok {
		return chain.Failure("output is required")
	}

	rec := Record{
		RunID: chain.GetOr(c, chain.RunIDKey, ""),
		Value: output,
		Time:  time.Now(),
	}
	if err := s.Sink.Save(rec); err != nil {
		return chain.Failuref("saving output: %v", err)
	}

	middleware.LoggerFrom(c).Info("output saved", "output", output)
	return chain.Success()
}

// MemorySink keeps saved records in memory, optionally bounded.
type MemorySink struct {
	mu      sync.RWMutex
	records []Record
	limit   int
}

// NewMemorySink creates a MemorySink that keeps at most limit records,
// dropping the oldest. A limit of 0 means unbounded.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

// Save appends r.
func (m *MemorySink) Save(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	if m.limit > 0 && len(m.records) > m.limit {
		m.records = m.records[len(m.records)-m.limit:]
	}
	return nil
}

// Records returns a copy of the saved records, oldest first.
func (m *MemorySink) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Last returns the most recent record.
func (m *MemorySink) Last() (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return Record{}, fmt.Errorf("no records saved")
	}
	return m.records[len(m.records)-1], nil
}
