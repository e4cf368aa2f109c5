package status

import (
	"log/slog"

	"github.com/nomis52/eventchain/chain"
)

// FailurePrefix marks status messages that describe a failed step.
const FailurePrefix = "❌ "

// Line logs status messages for one step and records them on a Board.
type Line struct {
	logger *slog.Logger
	board  *Board
	step   string
}

// NewLine creates a Line bound to step.
// board is optional; if nil, status updates are only logged.
func NewLine(step string, logger *slog.Logger, board *Board) *Line {
	if logger == nil {
		logger = slog.Default()
	}
	return &Line{
		logger: logger,
		board:  board,
		step:   step,
	}
}

// Set logs status with the step name and updates the board if present.
func (l *Line) Set(status string) {
	l.logger.Info(status, "step", l.step)
	if l.board != nil {
		l.board.Set(l.step, status)
	}
}

// Step returns the step name the Line reports for.
func (l *Line) Step() string {
	return l.step
}

// Capture records out on line when it is a failure and returns out unchanged.
//
//	return status.Capture(line, next(c))
func Capture(line *Line, out chain.Outcome) chain.Outcome {
	if msg, failed := out.Message(); failed && line != nil {
		line.Set(FailurePrefix + msg)
	}
	return out
}
