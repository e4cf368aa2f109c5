// Package handlers provides HTTP handlers for the chainrun server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"time"

	"github.com/nomis52/eventchain/config"
	"github.com/nomis52/eventchain/runner"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// ChainRunner can start chain runs in the background.
type ChainRunner interface {
	Start(ctx context.Context) error
}

// StatusProvider provides the current run and the next scheduled run.
type StatusProvider interface {
	Status() runner.RunSummary
	NextRun() *time.Time
}

// HistoryProvider provides access to run history.
type HistoryProvider interface {
	History() []runner.RunSummary
	Get(id string) (runner.RunSummary, bool)
}
