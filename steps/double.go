package steps

import (
	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/middleware"
)

// Double stores twice the input under OutputKey.
type Double struct{}

func (Double) Execute(c *chain.Context) chain.Outcome {
	input, ok := chain.Get[int](c, InputKey)
	if !ok {
		return chain.Failure("input is required")
	}

	output := input * 2
	c.Set(OutputKey, output)

	middleware.LoggerFrom(c).Debug("doubled input", "input", input, "output", output)
	return chain.Success()
}
