package chain

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const failureSeparator = "; "

// Chain runs its steps in order, wrapping each one with the registered
// middleware, and combines their Outcomes according to its FaultTolerance.
type Chain struct {
	logger *slog.Logger

	steps      []Step
	middleware []Middleware
	policy     FaultTolerance

	// compiled is nil whenever the configuration changed since the last build.
	compiled *pipeline
	builds   int

	mu sync.RWMutex
}

// stage is one step wrapped in the full middleware stack.
type stage struct {
	name string
	run  Handler
}

// pipeline is the compiled, immutable form of a Chain configuration.
type pipeline struct {
	stages []stage
	policy FaultTolerance
}

// Option is a function that configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger used for pipeline build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger.With("component", "chain")
	}
}

// WithFaultTolerance sets the initial policy. The default is Strict.
func WithFaultTolerance(policy FaultTolerance) Option {
	return func(c *Chain) {
		c.policy = policy
	}
}

// New creates an empty Chain.
func New(opts ...Option) *Chain {
	c := &Chain{
		logger: slog.Default().With("component", "chain"),
		policy: Strict,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddStep appends a step to the end of the chain.
func (c *Chain) AddStep(step Step) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step)
	c.compiled = nil
	return c
}

// AddSteps appends several steps, in order.
func (c *Chain) AddSteps(steps ...Step) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, steps...)
	c.compiled = nil
	return c
}

// Use registers a middleware. Middleware registered later wraps middleware
// registered earlier.
func (c *Chain) Use(mw Middleware) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, mw)
	c.compiled = nil
	return c
}

// SetFaultTolerance replaces the policy.
func (c *Chain) SetFaultTolerance(policy FaultTolerance) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = policy
	c.compiled = nil
	return c
}

// FaultTolerance returns the configured policy.
func (c *Chain) FaultTolerance() FaultTolerance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// Len returns the number of registered steps.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.steps)
}

// StepNames returns the display names of the registered steps, in order.
func (c *Chain) StepNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = displayName(step)
	}
	return names
}

// Execute runs every step against ctx and returns the combined Outcome.
//
// ctx is always cleared before Execute returns, whether the run succeeded,
// failed, or the pipeline could not be built. A nil ctx is treated as empty.
// A RunIDKey seeded by the caller is kept; otherwise a new UUID is set.
func (c *Chain) Execute(ctx *Context) Outcome {
	if ctx == nil {
		ctx = &Context{}
	}
	defer ctx.Clear()

	p, err := c.pipeline()
	if err != nil {
		c.logger.Debug("pipeline build failed", "error", err)
		return Failuref("pipeline build failed: %v", err)
	}

	if id, ok := Get[string](ctx, RunIDKey); !ok || id == "" {
		ctx.Set(RunIDKey, uuid.NewString())
	}
	return p.run(ctx)
}

// pipeline returns the cached pipeline, building it first if needed.
func (c *Chain) pipeline() (*pipeline, error) {
	c.mu.RLock()
	p := c.compiled
	c.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have built it while we waited for the lock.
	if c.compiled != nil {
		return c.compiled, nil
	}

	p, err := compile(c.steps, c.middleware, c.policy)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("compilation produced no pipeline")
	}

	c.compiled = p
	c.builds++
	c.logger.Debug("pipeline compiled",
		"steps", len(p.stages),
		"middleware", len(c.middleware),
		"fault_tolerance", p.policy.String(),
		"builds", c.builds,
	)
	return p, nil
}

// compile wraps every step in the middleware stack. The first middleware
// becomes the innermost layer, the last one the outermost.
func compile(steps []Step, middleware []Middleware, policy FaultTolerance) (*pipeline, error) {
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid fault tolerance %d", int(policy))
	}
	for i, mw := range middleware {
		if isNil(mw) {
			return nil, fmt.Errorf("middleware %d is nil", i)
		}
	}

	stages := make([]stage, 0, len(steps))
	for i, step := range steps {
		if isNil(step) {
			return nil, fmt.Errorf("step %d is nil", i)
		}

		h := Handler(step.Execute)
		for _, mw := range middleware {
			h = wrap(mw, h)
		}
		stages = append(stages, stage{name: displayName(step), run: h})
	}

	return &pipeline{stages: stages, policy: policy}, nil
}

func wrap(mw Middleware, next Handler) Handler {
	return func(c *Context) Outcome {
		return mw.Execute(c, next)
	}
}

// run executes the stages in order, applying the fault tolerance policy.
func (p *pipeline) run(ctx *Context) Outcome {
	var failures []string
	for _, s := range p.stages {
		ctx.Set(CurrentStepKey, s.name)

		out := s.run(ctx)
		if out.IsSuccess() {
			continue
		}

		msg, _ := out.Message()
		failures = append(failures, msg)
		if !p.policy.ContinuesOnFailure() {
			break
		}
	}

	if len(failures) == 0 {
		return Success()
	}
	return Failure(strings.Join(failures, failureSeparator))
}

func displayName(step Step) string {
	if isNil(step) {
		return "<nil>"
	}
	return NameOf(step).ShortString()
}

// isNil also catches interfaces holding a typed nil pointer.
func isNil(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
