package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nomis52/eventchain/chain"
)

// RecoveryError wraps a panic value with the stack trace.
type RecoveryError struct {
	PanicValue any
	StackTrace string
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("panic recovered: %v", e.PanicValue)
}

// Recover converts a panic in any inner layer into a failed Outcome. The
// stack trace is logged at error level.
func Recover(logger *slog.Logger) chain.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "recover")

	return chain.MiddlewareFunc(func(c *chain.Context, next chain.Handler) (out chain.Outcome) {
		defer func() {
			if r := recover(); r != nil {
				err := &RecoveryError{
					PanicValue: r,
					StackTrace: string(debug.Stack()),
				}
				logger.Error("step panicked",
					"step", stepName(c),
					"panic", fmt.Sprint(r),
					"stack", err.StackTrace,
				)
				out = chain.FromError(err)
			}
		}()

		return next(c)
	})
}
