package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const specSeparator = ";"

// ParseSpecs splits a ";" separated list of cron expressions and validates
// each one. Empty entries (e.g. a trailing semicolon) are skipped.
//
// Example:
//
//	"0 2 * * *; @every 30m"
func ParseSpecs(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: cron spec cannot be empty", ErrInvalidCronSpec)
	}

	var specs []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(spec, specSeparator) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if seen[s] {
			return nil, fmt.Errorf("%w: duplicate schedule '%s'", ErrInvalidCronSpec, s)
		}
		seen[s] = true

		if _, err := ParseSchedule(s); err != nil {
			return nil, fmt.Errorf("invalid cron expression '%s': %w", s, err)
		}
		specs = append(specs, s)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no schedules found in '%s'", ErrInvalidCronSpec, spec)
	}
	return specs, nil
}

// Manager runs one CronTrigger per schedule, all against the same Runnable.
type Manager struct {
	triggers []*CronTrigger
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a trigger for each schedule in spec (see ParseSpecs).
func NewManager(spec string, runnable Runnable, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	specs, err := ParseSpecs(spec)
	if err != nil {
		return nil, err
	}

	triggers := make([]*CronTrigger, 0, len(specs))
	for _, s := range specs {
		trigger, err := NewCronTrigger(s, runnable, logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for '%s': %w", s, err)
		}
		triggers = append(triggers, trigger)
	}

	for i, trigger := range triggers {
		logger.Info("trigger registered",
			"index", i,
			"schedule", trigger.Spec(),
			"next_run", trigger.NextRun(),
		)
	}

	return &Manager{triggers: triggers, logger: logger}, nil
}

// Start launches all triggers. Returns immediately. Calls after the first
// are ignored.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// Wait blocks until every trigger has exited. It returns immediately if
// Start was never called.
func (m *Manager) Wait() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return
	}
	for _, trigger := range m.triggers {
		<-trigger.Done()
	}
}

// Len returns the number of triggers.
func (m *Manager) Len() int {
	return len(m.triggers)
}

// NextRun returns the earliest scheduled run time across all triggers,
// or the zero time if none has a future run.
func (m *Manager) NextRun() time.Time {
	var earliest time.Time
	for _, trigger := range m.triggers {
		next := trigger.NextRun()
		if next.IsZero() {
			continue
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}

// IsInvalidSpec reports whether err was caused by an unparsable schedule.
func IsInvalidSpec(err error) bool {
	return errors.Is(err, ErrInvalidCronSpec)
}
