// Package runner executes a configured chain.Chain with a fresh Context per
// run and keeps a history of completed runs.
//
// The runner handles:
//   - Running synchronously (Run) or in the background (Start)
//   - Preventing concurrent runs
//   - Tracking the current run, including live per-step status and logs
//   - Maintaining history of completed runs
//
// # Example
//
//	r, err := runner.New(c, logger, runner.WithSeed(func() map[string]any {
//	    return map[string]any{steps.InputKey: 21}
//	}))
//
//	if err := r.Run(ctx); err != nil {
//	    if errors.Is(err, runner.ErrRunInProgress) {
//	        // Handle concurrent run attempt
//	    }
//	}
//
//	history := r.History() // Most recent first
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/logging"
	"github.com/nomis52/eventchain/metrics"
	"github.com/nomis52/eventchain/middleware"
	"github.com/nomis52/eventchain/status"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrRunInProgress is returned when attempting to start a run while one is already running.
	ErrRunInProgress = errors.New("chain run already in progress")
	// ErrRunFailed wraps the failure message of a run whose Outcome was a failure.
	ErrRunFailed = errors.New("chain run failed")
)

// Runner executes a Chain, one run at a time.
type Runner struct {
	logger *slog.Logger
	chain  *chain.Chain
	store  StateStore
	seed   func() map[string]any

	board     *status.Board
	timings   *middleware.Timings
	collector *logging.LogCollector

	registry     metrics.Registry
	runsTotal    metrics.CounterVec
	lastDuration metrics.Gauge
	lastRun      metrics.Gauge

	mu      sync.Mutex
	current RunSummary
}

// Option configures a Runner.
type Option func(*Runner)

// WithStateStore sets where completed runs are recorded. Defaults to a MemoryStore.
func WithStateStore(store StateStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithSeed sets the function providing the initial Context values of each run.
func WithSeed(seed func() map[string]any) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithStatusBoard reads step statuses from board, which must be the board
// the chain's Status middleware writes to. It is reset before each run.
func WithStatusBoard(board *status.Board) Option {
	return func(r *Runner) {
		r.board = board
	}
}

// WithTimings reads step durations from timings, which must be the Timings
// the chain's Timing middleware records into. It is reset before each run.
func WithTimings(timings *middleware.Timings) Option {
	return func(r *Runner) {
		r.timings = timings
	}
}

// WithLogCollector reads step logs from collector, which must be the
// collector behind the chain's Logging middleware hook. It is cleared before
// each run.
func WithLogCollector(collector *logging.LogCollector) Option {
	return func(r *Runner) {
		r.collector = collector
	}
}

// WithMetrics records run counts and durations in registry, and flushes it
// after each run.
func WithMetrics(registry metrics.Registry) Option {
	return func(r *Runner) {
		r.registry = registry
	}
}

// New creates a Runner for c.
func New(c *chain.Chain, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if c == nil {
		return nil, errors.New("chain is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		logger:  logger.With("component", "runner"),
		chain:   c,
		current: RunSummary{State: RunStateIdle},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = NewMemoryStore(0)
	}

	if r.registry != nil {
		if err := r.registerMetrics(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) registerMetrics() error {
	var err error
	r.runsTotal, err = r.registry.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_runs_total",
		Help: "Number of chain runs by result",
	}, []string{"result"})
	if err != nil {
		return fmt.Errorf("creating runs counter: %w", err)
	}

	r.lastDuration, err = r.registry.NewGauge(prometheus.GaugeOpts{
		Name: "chain_last_run_duration_seconds",
		Help: "Duration of the latest chain run",
	})
	if err != nil {
		return fmt.Errorf("creating duration gauge: %w", err)
	}

	r.lastRun, err = r.registry.NewGauge(prometheus.GaugeOpts{
		Name: "chain_last_run_timestamp_seconds",
		Help: "Unix time at which the latest chain run finished",
	})
	if err != nil {
		return fmt.Errorf("creating last run gauge: %w", err)
	}
	return nil
}

// Run executes the chain once and waits for it to finish.
// Returns ErrRunInProgress if a run is already in progress, and an error
// wrapping ErrRunFailed if the chain's Outcome is a failure.
func (r *Runner) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	summary, ok := r.tryStart()
	if !ok {
		return ErrRunInProgress
	}

	out := r.execute(summary.ID)
	return r.finish(ctx, out)
}

// Start executes the chain in the background.
// Returns ErrRunInProgress if a run is already in progress.
func (r *Runner) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	summary, ok := r.tryStart()
	if !ok {
		return ErrRunInProgress
	}

	go func() {
		out := r.execute(summary.ID)
		// The failure is already recorded in history.
		_ = r.finish(ctx, out)
	}()
	return nil
}

// Status returns the current run. While a run is in progress it includes
// the live status, duration and logs of each step. When idle it returns the
// last completed run.
func (r *Runner) Status() RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := r.current
	if summary.State == RunStateRunning {
		summary.Steps = r.stepExecutions()
	}
	return summary
}

// IsRunning returns true if a run is in progress.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.State == RunStateRunning
}

// History returns completed runs, most recent first.
func (r *Runner) History() []RunSummary {
	return r.store.History()
}

// Get returns a completed run by ID.
func (r *Runner) Get(id string) (RunSummary, bool) {
	return r.store.Get(id)
}

// tryStart transitions from idle to running.
func (r *Runner) tryStart() (RunSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current.State == RunStateRunning {
		return RunSummary{}, false
	}

	if r.board != nil {
		r.board.Reset()
	}
	if r.timings != nil {
		r.timings.Reset()
	}
	if r.collector != nil {
		r.collector.Clear()
	}

	now := time.Now()
	r.current = RunSummary{
		ID:             uuid.NewString(),
		State:          RunStateRunning,
		StartedAt:      &now,
		FaultTolerance: r.chain.FaultTolerance().String(),
	}
	return r.current, true
}

// execute runs the chain against a freshly seeded Context.
func (r *Runner) execute(id string) chain.Outcome {
	var values map[string]any
	if r.seed != nil {
		values = maps.Clone(r.seed())
	}

	ctx := chain.NewContext(values)
	ctx.Set(chain.RunIDKey, id)

	r.logger.Info("starting chain run", "run_id", id, "steps", r.chain.Len())
	return r.chain.Execute(ctx)
}

// finish transitions from running to idle and records the result.
func (r *Runner) finish(ctx context.Context, out chain.Outcome) error {
	r.mu.Lock()

	end := time.Now()
	r.current.State = RunStateIdle
	r.current.EndedAt = &end
	r.current.Steps = r.stepExecutions()

	var runErr error
	if msg, failed := out.Message(); failed {
		r.current.Error = msg
		runErr = fmt.Errorf("%w: %s", ErrRunFailed, msg)
		r.logger.Error("chain run failed", "run_id", r.current.ID, "error", msg, "duration", r.current.Duration())
	} else {
		r.logger.Info("chain run completed", "run_id", r.current.ID, "duration", r.current.Duration())
	}

	summary := r.current
	r.mu.Unlock()

	if err := r.store.Save(summary); err != nil {
		r.logger.Error("failed to save run to store", "error", err)
	}
	r.recordMetrics(ctx, summary)
	return runErr
}

func (r *Runner) recordMetrics(ctx context.Context, summary RunSummary) {
	if r.registry == nil {
		return
	}

	result := "success"
	if !summary.Succeeded() {
		result = "failure"
	}
	r.runsTotal.With(prometheus.Labels{"result": result}).Inc()
	r.lastDuration.Set(summary.Duration().Seconds())
	r.lastRun.Set(float64(summary.EndedAt.Unix()))

	if err := metrics.Flush(ctx, r.registry); err != nil {
		r.logger.Warn("failed to flush metrics", "error", err)
	}
}

// stepExecutions combines statuses, timings and logs per step, in chain order.
// Steps that never started are included with empty details.
func (r *Runner) stepExecutions() []StepExecution {
	names := r.chain.StepNames()
	execs := make([]StepExecution, 0, len(names))
	for _, name := range names {
		exec := StepExecution{Step: name}
		if r.board != nil {
			exec.Status = r.board.Get(name)
		}
		if r.timings != nil {
			exec.Duration, _ = r.timings.Get(name)
		}
		if r.collector != nil {
			exec.Logs = r.collector.Logs(name)
		}
		execs = append(execs, exec)
	}
	return execs
}
