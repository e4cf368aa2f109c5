package logging

import (
	"log/slog"
)

// LoggerHook derives a step-specific logger from a base logger.
// Middleware asks the hook for a logger each time a step starts, which lets
// callers plug in log capturing without the chain knowing about it.
type LoggerHook interface {
	LoggerForStep(base *slog.Logger, step string) *slog.Logger
}

// LoggerHookFunc adapts a function to the LoggerHook interface.
type LoggerHookFunc func(base *slog.Logger, step string) *slog.Logger

// LoggerForStep calls f(base, step).
func (f LoggerHookFunc) LoggerForStep(base *slog.Logger, step string) *slog.Logger {
	return f(base, step)
}

// CapturingLoggerHook hands out loggers that record into a LogCollector.
type CapturingLoggerHook struct {
	collector *LogCollector
}

// NewCapturingLoggerHook creates a hook that captures all step logs into collector.
func NewCapturingLoggerHook(collector *LogCollector) *CapturingLoggerHook {
	return &CapturingLoggerHook{collector: collector}
}

// LoggerForStep wraps the base handler with a CapturingHandler tagged with step.
func (p *CapturingLoggerHook) LoggerForStep(base *slog.Logger, step string) *slog.Logger {
	return slog.New(NewCapturingHandler(base.Handler(), p.collector, step))
}

// Collector returns the collector the hook writes to.
func (p *CapturingLoggerHook) Collector() *LogCollector {
	return p.collector
}
