package chain

// Handler runs one step, possibly wrapped by middleware.
type Handler func(c *Context) Outcome

// Step is a single unit of work in a Chain.
//
// IMPLEMENTATION CONTRACT:
// - Read inputs from and write outputs to the Context; never call other steps
// - Do not assume any other step ran first; a missing key is an ordinary failure
// - Report problems with Failure rather than panicking
type Step interface {
	Execute(c *Context) Outcome
}

// StepFunc adapts a plain function to the Step interface.
// Its display name is "chain.StepFunc"; use NamedStep to give it a better one.
type StepFunc func(c *Context) Outcome

// Execute calls f(c).
func (f StepFunc) Execute(c *Context) Outcome {
	return f(c)
}

// Namer is implemented by steps that provide their own display name.
type Namer interface {
	Name() string
}

// NamedStep wraps fn as a Step whose display name is name.
func NamedStep(name string, fn StepFunc) Step {
	return &namedStep{name: name, fn: fn}
}

type namedStep struct {
	name string
	fn   StepFunc
}

func (s *namedStep) Execute(c *Context) Outcome {
	return s.fn(c)
}

func (s *namedStep) Name() string {
	return s.name
}

// Middleware wraps the execution of every step in a Chain.
//
// next is the next inner layer: another middleware, or the step itself for
// the innermost layer. A middleware that does not call next short-circuits
// the step and its Outcome is used instead.
type Middleware interface {
	Execute(c *Context, next Handler) Outcome
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(c *Context, next Handler) Outcome

// Execute calls f(c, next).
func (f MiddlewareFunc) Execute(c *Context, next Handler) Outcome {
	return f(c, next)
}
