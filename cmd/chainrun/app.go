package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/nomis52/eventchain/buildinfo"
	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/config"
	"github.com/nomis52/eventchain/logging"
	"github.com/nomis52/eventchain/metrics"
	"github.com/nomis52/eventchain/middleware"
	"github.com/nomis52/eventchain/runner"
	"github.com/nomis52/eventchain/scheduler"
	"github.com/nomis52/eventchain/server"
	"github.com/nomis52/eventchain/status"
	"github.com/nomis52/eventchain/steps"
)

// app is the fully wired chainrun program.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer

	chain    *chain.Chain
	runner   *runner.Runner
	sink     *steps.MemorySink
	registry metrics.Registry
	scrape   *metrics.ScrapeRegistry

	// closeLog releases the log file opened by newApp, if any.
	closeLog func() error
}

func newApp(cfg config.Config, out io.Writer) (*app, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := build(cfg, logger.Logger, out)
	if err != nil {
		logger.Close()
		return nil, err
	}
	a.closeLog = logger.Close
	return a, nil
}

// close releases resources held by the app.
func (a *app) close() error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// build wires the chain, its middleware and the runner from cfg.
func build(cfg config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, out: out}

	if err := a.buildRegistry(); err != nil {
		return nil, err
	}

	a.sink = steps.NewMemorySink(cfg.History.MaxSaved)
	chainSteps, err := a.buildSteps()
	if err != nil {
		return nil, err
	}

	board := status.NewBoard()
	timings := middleware.NewTimings()
	collector := logging.NewLogCollector()

	metricsMW, err := middleware.Metrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}

	saveName := chain.NameOf(&steps.Save{}).ShortString()

	// Registration order runs innermost to outermost.
	a.chain = chain.New(
		chain.WithLogger(logger),
		chain.WithFaultTolerance(cfg.Chain.FaultTolerance),
	).
		AddSteps(chainSteps...).
		Use(middleware.OnlyFor([]string{saveName}, middleware.RequireKeys(steps.OutputKey))).
		Use(middleware.Recover(logger)).
		Use(middleware.Status(board, logger)).
		Use(middleware.Timing(timings)).
		Use(metricsMW).
		Use(middleware.Logging(logger, middleware.WithLoggerHook(logging.NewCapturingLoggerHook(collector))))

	input := cfg.Chain.Input
	a.runner, err = runner.New(a.chain, logger,
		runner.WithSeed(func() map[string]any {
			return map[string]any{steps.InputKey: input}
		}),
		runner.WithStateStore(runner.NewMemoryStore(cfg.History.MaxRuns)),
		runner.WithStatusBoard(board),
		runner.WithTimings(timings),
		runner.WithLogCollector(collector),
		runner.WithMetrics(a.registry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return a, nil
}

func (a *app) buildRegistry() error {
	mon := a.cfg.Monitoring
	if mon.PushURL != "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		a.registry = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      mon.PushURL,
			Prefix:   mon.MetricsPrefix,
			Job:      mon.JobName,
			Instance: hostname,
			Timeout:  mon.PushTimeout,
		})
		return nil
	}

	reg, err := metrics.NewScrapeRegistry(metrics.WithRuntimeCollectors())
	if err != nil {
		return fmt.Errorf("failed to create metrics registry: %w", err)
	}
	a.scrape = reg
	a.registry = reg
	return nil
}

func (a *app) buildSteps() ([]chain.Step, error) {
	out := make([]chain.Step, 0, len(a.cfg.Chain.Steps))
	for _, name := range a.cfg.Chain.Steps {
		switch name {
		case config.StepValidate:
			out = append(out, steps.Validate{})
		case config.StepDouble:
			out = append(out, steps.Double{})
		case config.StepSave:
			out = append(out, &steps.Save{Sink: a.sink})
		default:
			return nil, fmt.Errorf("unknown step %q", name)
		}
	}
	return out, nil
}

// run executes the chain once, or on the configured schedule until ctx is done.
func (a *app) run(ctx context.Context) error {
	a.logger.Info("chainrun started", buildinfo.Get().LogArgs()...)
	a.logger.Info("chain configured",
		"steps", a.chain.StepNames(),
		"fault_tolerance", a.chain.FaultTolerance().String(),
		"input", a.cfg.Chain.Input,
	)

	if a.cfg.Schedule.Cron == "" {
		return a.runOnce(ctx)
	}
	return a.runScheduled(ctx)
}

func (a *app) runOnce(ctx context.Context) error {
	err := a.runner.Run(ctx)
	if errors.Is(err, runner.ErrRunInProgress) || errors.Is(err, context.Canceled) {
		return err
	}
	a.report(a.runner.Status())
	return err
}

func (a *app) runScheduled(ctx context.Context) error {
	sched, err := scheduler.NewManager(a.cfg.Schedule.Cron, a.runner, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stays nil, and never ready, without a server.
	var serverErr chan error
	if a.scrape != nil && a.cfg.Monitoring.ListenAddr != "" {
		srv, err := server.New(a.runner, a.logger,
			server.WithListenAddr(a.cfg.Monitoring.ListenAddr),
			server.WithMetricsHandler(a.scrape.Handler()),
			server.WithConfig(&a.cfg),
			server.WithScheduler(sched),
		)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		serverErr = make(chan error, 1)
		go func() { serverErr <- srv.Run(ctx) }()
	}

	a.logger.Info("scheduler started", "next_run", sched.NextRun())
	sched.Start(ctx)

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server failed: %w", err)
			break
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	cancel()
	sched.Wait()
	a.logger.Info("chainrun stopped", "runs", len(a.runner.History()))
	return runErr
}

// report prints a summary of run to the app's output.
func (a *app) report(run runner.RunSummary) {
	result := "success"
	if !run.Succeeded() {
		result = "failure: " + run.Error
	}
	fmt.Fprintf(a.out, "run %s: %s (%s)\n", run.ID, result, run.Duration())

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, s := range run.Steps {
		st := s.Status
		if st == "" {
			st = "skipped"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Step, st, s.Duration)
	}
	tw.Flush()

	if rec, err := a.sink.Last(); err == nil && rec.RunID == run.ID {
		fmt.Fprintf(a.out, "output: %d\n", rec.Value)
	}
}
