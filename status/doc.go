// Package status provides step-scoped status reporting for chain runs.
//
// Steps (or middleware acting on their behalf) report progress as short,
// unstructured messages. Each message is both logged and stored so the
// latest state of every step can be displayed.
//
// The package follows the handler/writer split of log/slog:
//
//   - Line: writes status messages for one step (analogous to slog.Logger)
//   - Board: receives and stores the latest message per step (analogous to slog.Handler)
//
// Usage:
//
//	board := status.NewBoard()
//	line := status.NewLine("steps.Validate", logger, board)
//	line.Set("checking input")
//
//	statuses := board.All() // map[string]string keyed by step name
//
// Capture records a failed chain.Outcome on a Line, prefixed with ❌.
package status
