package middleware

import (
	"log/slog"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/status"
)

// Status reports each step as "running" and then "completed", or the
// failure message prefixed with ❌, on board.
func Status(board *status.Board, logger *slog.Logger) chain.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "status")

	return chain.MiddlewareFunc(func(c *chain.Context, next chain.Handler) chain.Outcome {
		line := status.NewLine(stepName(c), logger, board)
		line.Set("running")

		out := status.Capture(line, next(c))
		if out.IsSuccess() {
			line.Set("completed")
		}
		return out
	})
}
