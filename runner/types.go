package runner

import (
	"fmt"
	"time"

	"github.com/nomis52/eventchain/logging"
)

// RunState represents the current state of the runner.
type RunState int

const (
	// RunStateIdle indicates no run is in progress.
	RunStateIdle RunState = iota
	// RunStateRunning indicates a run is in progress.
	RunStateRunning
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RunState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"idle"`:
		*s = RunStateIdle
	case `"running"`:
		*s = RunStateRunning
	default:
		return fmt.Errorf("unknown run state %s", data)
	}
	return nil
}

// RunSummary describes the current or a completed run.
type RunSummary struct {
	// ID is a UUID assigned when the run starts.
	ID string `json:"id"`
	// State is the state of the run.
	State RunState `json:"state"`
	// StartedAt is when the run started. Nil if no run has occurred.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is when the run ended. Nil while running.
	EndedAt *time.Time `json:"ended_at,omitempty"`
	// FaultTolerance is the policy the chain ran with.
	FaultTolerance string `json:"fault_tolerance,omitempty"`
	// Error is the failure message of the run. Empty on success.
	Error string `json:"error,omitempty"`
	// Steps holds per-step details, in chain order.
	Steps []StepExecution `json:"steps,omitempty"`
}

// Succeeded returns true if the run has finished without error.
func (s RunSummary) Succeeded() bool {
	return s.EndedAt != nil && s.Error == ""
}

// Duration returns how long the run took, or 0 while it is running.
func (s RunSummary) Duration() time.Duration {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(*s.StartedAt)
}

// StepExecution is what the runner observed of one step during a run.
type StepExecution struct {
	Step     string             `json:"step"`
	Status   string             `json:"status,omitempty"`
	Duration time.Duration      `json:"duration,omitempty"`
	Logs     []logging.LogEntry `json:"logs,omitempty"`
}
