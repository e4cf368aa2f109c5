// Package metrics provides Prometheus-compatible metrics for chain runs.
//
// Two registries are available:
//   - ScrapeRegistry: metrics live in a Prometheus registry and are served over HTTP
//   - PushRegistry: metrics are buffered and sent to a remote write endpoint on Flush
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauge is a metric that represents a single numerical value that can go up and down.
type Gauge interface {
	// Set sets the Gauge to the given value.
	Set(float64)
}

// Counter is a metric that represents a single monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()
	// Add adds the given value to the counter.
	Add(float64)
}

// GaugeVec is a Gauge with labels.
type GaugeVec interface {
	// With returns the Gauge for the given Labels.
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter with labels.
type CounterVec interface {
	// With returns the Counter for the given Labels.
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}

// Flusher is implemented by registries that deliver metrics in batches.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Flush delivers buffered metrics if r buffers them, and is a no-op otherwise.
func Flush(ctx context.Context, r Registry) error {
	if f, ok := r.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
