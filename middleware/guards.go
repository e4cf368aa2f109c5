package middleware

import (
	"slices"
	"strings"

	"github.com/nomis52/eventchain/chain"
)

// RequireKeys fails a step without running it when any of keys is missing
// from the context.
func RequireKeys(keys ...string) chain.Middleware {
	return chain.MiddlewareFunc(func(c *chain.Context, next chain.Handler) chain.Outcome {
		var missing []string
		for _, k := range keys {
			if !c.Has(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return chain.Failuref("%s: missing required keys: %s", stepName(c), strings.Join(missing, ", "))
		}
		return next(c)
	})
}

// OnlyFor applies mw to the named steps only; other steps skip straight to
// the next layer. Names are step display names such as "steps.Save".
// A nil mw yields nil, which makes the chain fail to build.
func OnlyFor(steps []string, mw chain.Middleware) chain.Middleware {
	if mw == nil {
		return nil
	}
	names := slices.Clone(steps)
	return chain.MiddlewareFunc(func(c *chain.Context, next chain.Handler) chain.Outcome {
		if slices.Contains(names, stepName(c)) {
			return mw.Execute(c, next)
		}
		return next(c)
	})
}

// stepName returns the display name of the running step.
func stepName(c *chain.Context) string {
	return chain.GetOr(c, chain.CurrentStepKey, "unknown")
}
