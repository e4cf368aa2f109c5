package middleware

import (
	"io"
	"log/slog"

	"github.com/nomis52/eventchain/chain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okStep(name string) chain.Step {
	return chain.NamedStep(name, func(c *chain.Context) chain.Outcome {
		return chain.Success()
	})
}

func failStep(name, msg string) chain.Step {
	return chain.NamedStep(name, func(c *chain.Context) chain.Outcome {
		return chain.Failure(msg)
	})
}

func panicStep(name string, v any) chain.Step {
	return chain.NamedStep(name, func(c *chain.Context) chain.Outcome {
		panic(v)
	})
}
