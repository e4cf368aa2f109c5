// Package middleware provides chain.Middleware implementations for common
// cross-cutting concerns: logging, timing, metrics, status tracking, panic
// recovery and input guards.
//
// Middleware registered later wraps middleware registered earlier, so a
// typical registration order is:
//
//	c := chain.New().
//	    Use(middleware.Recover(logger)).          // innermost, closest to the step
//	    Use(middleware.Status(board, logger)).
//	    Use(middleware.Timing(timings)).
//	    Use(metricsMW).
//	    Use(middleware.Logging(logger))           // outermost
package middleware
