package middleware

import (
	"fmt"
	"time"

	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type metricsMiddleware struct {
	outcomes  metrics.CounterVec
	durations metrics.GaugeVec
	lastRun   metrics.GaugeVec
}

// Metrics counts step outcomes and records step durations in registry:
//   - step_outcomes_total{step, result}: result is "success" or "failure"
//   - step_duration_seconds{step}: duration of the latest run
//   - step_last_run_timestamp_seconds{step}: when the step last finished
func Metrics(registry metrics.Registry) (chain.Middleware, error) {
	outcomes, err := registry.NewCounterVec(prometheus.CounterOpts{
		Name: "step_outcomes_total",
		Help: "Number of step executions by result",
	}, []string{"step", "result"})
	if err != nil {
		return nil, fmt.Errorf("creating outcomes counter: %w", err)
	}

	durations, err := registry.NewGaugeVec(prometheus.GaugeOpts{
		Name: "step_duration_seconds",
		Help: "Duration of the latest execution of each step",
	}, []string{"step"})
	if err != nil {
		return nil, fmt.Errorf("creating duration gauge: %w", err)
	}

	lastRun, err := registry.NewGaugeVec(prometheus.GaugeOpts{
		Name: "step_last_run_timestamp_seconds",
		Help: "Unix time at which each step last finished",
	}, []string{"step"})
	if err != nil {
		return nil, fmt.Errorf("creating last run gauge: %w", err)
	}

	return &metricsMiddleware{
		outcomes:  outcomes,
		durations: durations,
		lastRun:   lastRun,
	}, nil
}

func (m *metricsMiddleware) Execute(c *chain.Context, next chain.Handler) chain.Outcome {
	step := stepName(c)

	start := time.Now()
	out := next(c)
	end := time.Now()

	result := resultSuccess
	if !out.IsSuccess() {
		result = resultFailure
	}

	m.outcomes.With(prometheus.Labels{"step": step, "result": result}).Inc()
	m.durations.With(prometheus.Labels{"step": step}).Set(end.Sub(start).Seconds())
	m.lastRun.With(prometheus.Labels{"step": step}).Set(float64(end.Unix()))
	return out
}
