// Package chain runs an ordered list of steps against a shared, mutable Context.
//
// # Overview
//
// A Chain holds three pieces of configuration: the steps to run (in
// registration order), the middleware to wrap around every step, and a
// FaultTolerance policy that decides what happens after a step fails.
// Execute compiles that configuration into a pipeline once, caches it, and
// reuses it for every subsequent call until the configuration changes.
//
// # Steps
//
// A step reads and writes the Context and reports an Outcome:
//
//	type Validate struct{}
//
//	func (Validate) Execute(c *chain.Context) chain.Outcome {
//	    v, ok := chain.Get[int](c, "input")
//	    if !ok {
//	        return chain.Failure("input is required")
//	    }
//	    if v < 0 {
//	        return chain.Failure("input must be positive")
//	    }
//	    return chain.Success()
//	}
//
// Steps never call each other; they only communicate through the Context. A
// step must not assume that any other step ran before it.
//
// # Middleware
//
// Middleware wraps each step individually. Registration order is LIFO: the
// last middleware registered is the outermost layer.
//
//	c := chain.New().
//	    Use(m1).
//	    Use(m2).
//	    AddStep(s)
//
// runs m2 (before) -> m1 (before) -> s -> m1 (after) -> m2 (after). A
// middleware may skip calling next to short-circuit the step. While a step
// runs, its display name is available under CurrentStepKey.
//
// # Fault Tolerance
//
//	Strict:     stop at the first failure and return it.
//	Lenient:    keep going, return all failures joined with "; ".
//	BestEffort: same as Lenient.
//
// # Context Lifecycle
//
// Execute always clears the Context before returning, including values the
// caller put in before the run. Anything that must outlive the run has to be
// copied out by a step or middleware.
//
// # Thread Safety
//
// Builder calls must not race with Execute. Once configured, a Chain may be
// executed from multiple goroutines as long as each call gets its own
// Context; all of them share one compiled pipeline.
package chain
