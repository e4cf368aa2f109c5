package steps

import (
	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/middleware"
)

// Validate checks that InputKey holds a non-negative int.
type Validate struct{}

func (Validate) Execute(c *chain.Context) chain.Outcome {
	if !c.Has(InputKey) {
		return chain.Failure("input is required")
	}
	input, ok := chain.Get[int](c, InputKey)
	if !ok {
		return chain.Failure("input must be an integer")
	}
	if input < 0 {
		return chain.Failuref("input must be positive, got %d", input)
	}

	middleware.LoggerFrom(c).Debug("input valid", "input", input)
	return chain.Success()
}
