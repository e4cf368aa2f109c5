package middleware

import (
	"log/slog"
	"time"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/logging"
)

// LoggerKey is the context key under which Logging stores the step logger.
const LoggerKey = "_middleware.logger"

// LoggingOption configures the Logging middleware.
type LoggingOption func(*loggingMiddleware)

// WithLoggerHook derives each step's logger through hook, for example to
// capture step logs with a logging.CapturingLoggerHook.
func WithLoggerHook(hook logging.LoggerHook) LoggingOption {
	return func(m *loggingMiddleware) {
		m.hook = hook
	}
}

type loggingMiddleware struct {
	logger *slog.Logger
	hook   logging.LoggerHook
}

// Logging logs the start and end of every step and makes a step-scoped
// logger available to inner layers through LoggerFrom.
func Logging(logger *slog.Logger, opts ...LoggingOption) chain.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &loggingMiddleware{logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *loggingMiddleware) Execute(c *chain.Context, next chain.Handler) chain.Outcome {
	step := stepName(c)

	logger := m.logger
	if m.hook != nil {
		logger = m.hook.LoggerForStep(logger, step)
	}
	logger = logger.With("step", step)
	if runID, ok := chain.Get[string](c, chain.RunIDKey); ok {
		logger = logger.With("run_id", runID)
	}

	c.Set(LoggerKey, logger)
	defer c.Delete(LoggerKey)

	logger.Debug("step started")
	start := time.Now()
	out := next(c)
	duration := time.Since(start)

	if msg, failed := out.Message(); failed {
		logger.Warn("step failed", "error", msg, "duration", duration)
	} else {
		logger.Info("step completed", "duration", duration)
	}
	return out
}

// LoggerFrom returns the step logger stored by Logging, or slog.Default()
// when the step is not wrapped by Logging.
func LoggerFrom(c *chain.Context) *slog.Logger {
	if logger, ok := chain.Get[*slog.Logger](c, LoggerKey); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
