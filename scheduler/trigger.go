// Package scheduler triggers chain runs on cron schedules.
//
// A CronTrigger wraps a Runnable and executes it according to a cron
// schedule. It is started once and runs until its context is cancelled.
//
// Example usage:
//
//	trigger, err := scheduler.NewCronTrigger("0 2 * * *", r, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trigger.Start(ctx)  // Returns immediately, runs in background
//	<-trigger.Done()    // Closed once ctx is cancelled and the loop exits
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Runnable is implemented by anything that can be triggered by a schedule.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts a function to the Runnable interface.
type RunnableFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a standard 5 field cron expression or a descriptor
// such as "@hourly" or "@every 5m". Expressions that parse but never match
// a date, such as "0 0 30 2 *", are rejected.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("%w: schedule %q never fires", ErrInvalidCronSpec, spec)
	}
	return schedule, nil
}

// CronTrigger executes a Runnable according to a cron schedule.
type CronTrigger struct {
	spec     string
	schedule cron.Schedule
	runnable Runnable
	logger   *slog.Logger
	done     chan struct{}
}

// NewCronTrigger creates a new CronTrigger with the given cron specification.
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewCronTrigger(spec string, runnable Runnable, logger *slog.Logger) (*CronTrigger, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	return newTrigger(spec, schedule, runnable, logger), nil
}

func newTrigger(spec string, schedule cron.Schedule, runnable Runnable, logger *slog.Logger) *CronTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronTrigger{
		spec:     spec,
		schedule: schedule,
		runnable: runnable,
		logger:   logger.With("component", "scheduler", "schedule", spec),
		done:     make(chan struct{}),
	}
}

// Spec returns the cron expression the trigger was created with.
func (ct *CronTrigger) Spec() string {
	return ct.spec
}

// Start launches a goroutine that triggers runs according to the schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
// Start must be called at most once.
func (ct *CronTrigger) Start(ctx context.Context) {
	go ct.loop(ctx)
}

// Done is closed when the scheduling loop has exited.
func (ct *CronTrigger) Done() <-chan struct{} {
	return ct.done
}

// NextRun returns the next scheduled run time from now, or the zero time if
// the schedule has no further matches.
func (ct *CronTrigger) NextRun() time.Time {
	return ct.schedule.Next(time.Now())
}

func (ct *CronTrigger) loop(ctx context.Context) {
	defer close(ct.done)

	for {
		nextRun := ct.schedule.Next(time.Now())
		if nextRun.IsZero() {
			ct.logger.Error("schedule has no future runs, trigger idle until shutdown")
			<-ctx.Done()
			ct.logger.Info("cron trigger shutting down")
			return
		}
		wait := time.Until(nextRun)

		ct.logger.Debug("waiting for next scheduled run",
			"next_run", nextRun,
			"wait_duration", wait,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			ct.logger.Info("cron trigger shutting down")
			return
		case <-timer.C:
			ct.executeRun(ctx)
		}
	}
}

func (ct *CronTrigger) executeRun(ctx context.Context) {
	ct.logger.Info("starting scheduled run")

	if err := ct.runnable.Run(ctx); err != nil {
		ct.logger.Warn("scheduled run completed with error", "error", err)
	} else {
		ct.logger.Info("scheduled run completed successfully")
	}
}
