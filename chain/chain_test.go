package chain

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test steps
// ---------------------------------------------------------------------

// validateStep fails unless "input" is a non-negative int.
type validateStep struct{}

func (validateStep) Execute(c *Context) Outcome {
	v, ok := Get[int](c, "input")
	if !ok {
		return Failure("input is required")
	}
	if v < 0 {
		return Failuref("input must be positive, got %d", v)
	}
	return Success()
}

// doubleStep writes output = input * 2.
type doubleStep struct{}

func (doubleStep) Execute(c *Context) Outcome {
	v, ok := Get[int](c, "input")
	if !ok {
		return Failure("input is required")
	}
	c.Set("output", v*2)
	return Success()
}

// failStep always fails with msg and counts its invocations.
type failStep struct {
	msg   string
	calls int
}

func (s *failStep) Execute(c *Context) Outcome {
	s.calls++
	return Failure(s.msg)
}

// markStep sets key to true and counts its invocations.
type markStep struct {
	key   string
	calls int
}

func (s *markStep) Execute(c *Context) Outcome {
	s.calls++
	c.Set(s.key, true)
	return Success()
}

// snapshotStep copies the context into snapshot so it survives the clear.
type snapshotStep struct {
	snapshot map[string]any
}

func (s *snapshotStep) Execute(c *Context) Outcome {
	s.snapshot = make(map[string]any, c.Count())
	for _, k := range c.Keys() {
		v, _ := c.Value(k)
		s.snapshot[k] = v
	}
	return Success()
}

// orderLog records middleware and step events in order.
type orderLog struct {
	events []string
}

func (l *orderLog) middleware(name string) Middleware {
	return MiddlewareFunc(func(c *Context, next Handler) Outcome {
		l.events = append(l.events, name+"-before")
		out := next(c)
		l.events = append(l.events, name+"-after")
		return out
	})
}

func (l *orderLog) step(name string) Step {
	return NamedStep(name, func(c *Context) Outcome {
		l.events = append(l.events, name)
		return Success()
	})
}

// Tests
// ---------------------------------------------------------------------

func TestChain_RoundTrip(t *testing.T) {
	snap := &snapshotStep{}
	c := New().AddStep(validateStep{}).AddStep(doubleStep{}).AddStep(snap)

	ctx := NewContext(map[string]any{"input": 21})
	out := c.Execute(ctx)

	require.True(t, out.IsSuccess(), "round trip should succeed: %v", out)
	assert.Equal(t, 42, snap.snapshot["output"])
	assert.Equal(t, 0, ctx.Count(), "context should be cleared")
}

func TestChain_NegativeInput(t *testing.T) {
	c := New().AddStep(validateStep{}).AddStep(doubleStep{})

	ctx := NewContext(map[string]any{"input": -10})
	out := c.Execute(ctx)

	require.False(t, out.IsSuccess())
	msg, ok := out.Message()
	require.True(t, ok)
	assert.Contains(t, msg, "must be positive")
	assert.False(t, ctx.Has("output"))
	assert.Equal(t, 0, ctx.Count())
}

func TestChain_EmptyChain(t *testing.T) {
	c := New()

	ctx := NewContext(map[string]any{"input": 1, "other": "x"})
	out := c.Execute(ctx)

	assert.True(t, out.IsSuccess())
	assert.Equal(t, 0, ctx.Count())
	assert.False(t, ctx.Has("input"))
}

func TestChain_NilContext(t *testing.T) {
	c := New().AddStep(&markStep{key: "a"})
	assert.True(t, c.Execute(nil).IsSuccess())
}

func TestChain_ContextClearedOnFailure(t *testing.T) {
	c := New().AddStep(&markStep{key: "a"}).AddStep(&failStep{msg: "boom"})

	ctx := NewContext(map[string]any{"seed": 1})
	out := c.Execute(ctx)

	assert.False(t, out.IsSuccess())
	assert.Equal(t, 0, ctx.Count())
	for _, key := range []string{"seed", "a", CurrentStepKey, RunIDKey} {
		assert.False(t, ctx.Has(key), "key %q should be cleared", key)
	}
}

func TestChain_StrictHaltsOnFirstFailure(t *testing.T) {
	a := &failStep{msg: "a failed"}
	b := &markStep{key: "b"}
	snap := &snapshotStep{}

	c := New(WithFaultTolerance(Strict)).AddSteps(a, b, snap)
	out := c.Execute(NewContext(nil))

	require.False(t, out.IsSuccess())
	msg, _ := out.Message()
	assert.Equal(t, "a failed", msg)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, b.calls, "b must not run under strict")
	assert.Nil(t, snap.snapshot)
}

func TestChain_ContinuingPoliciesRunAllSteps(t *testing.T) {
	for _, policy := range []FaultTolerance{Lenient, BestEffort} {
		t.Run(policy.String(), func(t *testing.T) {
			a := &failStep{msg: "a failed"}
			b := &markStep{key: "b"}
			d := &failStep{msg: "d failed"}
			snap := &snapshotStep{}

			c := New().SetFaultTolerance(policy).AddSteps(a, b, d, snap)
			out := c.Execute(NewContext(nil))

			require.False(t, out.IsSuccess())
			msg, _ := out.Message()
			assert.Equal(t, "a failed; d failed", msg)
			assert.Equal(t, 1, b.calls)
			assert.Equal(t, true, snap.snapshot["b"], "b's side effect should be visible downstream")
		})
	}
}

func TestChain_ContinuingPolicySucceedsWithoutFailures(t *testing.T) {
	c := New(WithFaultTolerance(Lenient)).AddSteps(&markStep{key: "a"}, &markStep{key: "b"})
	assert.True(t, c.Execute(NewContext(nil)).IsSuccess())
}

func TestChain_MiddlewareLIFOOrder(t *testing.T) {
	log := &orderLog{}
	c := New().
		Use(log.middleware("M1")).
		Use(log.middleware("M2")).
		AddStep(log.step("S"))

	require.True(t, c.Execute(NewContext(nil)).IsSuccess())
	assert.Equal(t, []string{"M2-before", "M1-before", "S", "M1-after", "M2-after"}, log.events)
}

func TestChain_MiddlewareWrapsEachStep(t *testing.T) {
	log := &orderLog{}
	c := New().
		Use(log.middleware("M")).
		AddStep(log.step("S1")).
		AddStep(log.step("S2"))

	require.True(t, c.Execute(NewContext(nil)).IsSuccess())
	assert.Equal(t, []string{"M-before", "S1", "M-after", "M-before", "S2", "M-after"}, log.events)
}

func TestChain_MiddlewareShortCircuit(t *testing.T) {
	s := &markStep{key: "ran"}
	blocker := MiddlewareFunc(func(c *Context, next Handler) Outcome {
		return Failure("blocked")
	})

	c := New().Use(blocker).AddStep(s)
	out := c.Execute(NewContext(nil))

	assert.False(t, out.IsSuccess())
	msg, _ := out.Message()
	assert.Equal(t, "blocked", msg)
	assert.Equal(t, 0, s.calls)
}

func TestChain_CurrentStepKey(t *testing.T) {
	var seen []string
	recorder := MiddlewareFunc(func(c *Context, next Handler) Outcome {
		name, _ := Get[string](c, CurrentStepKey)
		seen = append(seen, name)
		return next(c)
	})

	c := New().Use(recorder).
		AddStep(validateStep{}).
		AddStep(NamedStep("custom", func(c *Context) Outcome { return Success() }))

	c.Execute(NewContext(map[string]any{"input": 1}))
	assert.Equal(t, []string{"chain.validateStep", "custom"}, seen)
}

func TestChain_RunIDIsUniquePerExecute(t *testing.T) {
	var ids []string
	c := New().AddStep(NamedStep("id", func(c *Context) Outcome {
		id, ok := Get[string](c, RunIDKey)
		if !ok {
			return Failure("no run id")
		}
		ids = append(ids, id)
		return Success()
	}))

	require.True(t, c.Execute(NewContext(nil)).IsSuccess())
	require.True(t, c.Execute(NewContext(nil)).IsSuccess())
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestChain_SeededRunIDIsKept(t *testing.T) {
	var got string
	c := New().AddStep(NamedStep("id", func(c *Context) Outcome {
		got = GetOr(c, RunIDKey, "")
		return Success()
	}))

	require.True(t, c.Execute(NewContext(map[string]any{RunIDKey: "run-7"})).IsSuccess())
	assert.Equal(t, "run-7", got)
}

func TestChain_CacheIsReused(t *testing.T) {
	c := New().AddStep(validateStep{}).AddStep(doubleStep{})

	for i := 0; i < 5; i++ {
		c.Execute(NewContext(map[string]any{"input": i}))
	}
	assert.Equal(t, 1, c.builds, "pipeline should be compiled once")
}

func TestChain_CacheIsTransparent(t *testing.T) {
	inputs := []any{21, -10, 0, "not a number", nil}

	cached := New(WithFaultTolerance(Lenient)).AddStep(validateStep{}).AddStep(doubleStep{})
	for _, in := range inputs {
		fresh := New(WithFaultTolerance(Lenient)).AddStep(validateStep{}).AddStep(doubleStep{})

		want := fresh.Execute(NewContext(map[string]any{"input": in}))
		got := cached.Execute(NewContext(map[string]any{"input": in}))
		assert.Equal(t, want, got, "input %v", in)
	}
	assert.Equal(t, 1, cached.builds)
}

func TestChain_CacheInvalidation(t *testing.T) {
	t.Run("AddStep", func(t *testing.T) {
		c := New().AddStep(&markStep{key: "a"})
		require.True(t, c.Execute(NewContext(nil)).IsSuccess())

		c.AddStep(&failStep{msg: "late failure"})
		out := c.Execute(NewContext(nil))
		assert.False(t, out.IsSuccess())
		assert.Equal(t, 2, c.builds)
	})

	t.Run("Use", func(t *testing.T) {
		c := New().AddStep(&markStep{key: "a"})
		require.True(t, c.Execute(NewContext(nil)).IsSuccess())

		c.Use(MiddlewareFunc(func(c *Context, next Handler) Outcome {
			return Failure("denied")
		}))
		assert.False(t, c.Execute(NewContext(nil)).IsSuccess())
	})

	t.Run("SetFaultTolerance", func(t *testing.T) {
		b := &markStep{key: "b"}
		c := New().AddStep(&failStep{msg: "a"}).AddStep(b)
		c.Execute(NewContext(nil))
		assert.Equal(t, 0, b.calls)

		c.SetFaultTolerance(BestEffort)
		c.Execute(NewContext(nil))
		assert.Equal(t, 1, b.calls)
	})
}

func TestChain_BuildFailure(t *testing.T) {
	tests := []struct {
		name  string
		chain func() *Chain
	}{
		{
			name:  "nil step",
			chain: func() *Chain { return New().AddStep(nil) },
		},
		{
			name: "typed nil step",
			chain: func() *Chain {
				var s *markStep
				return New().AddStep(s)
			},
		},
		{
			name:  "nil middleware",
			chain: func() *Chain { return New().AddStep(&markStep{key: "a"}).Use(nil) },
		},
		{
			name:  "invalid policy",
			chain: func() *Chain { return New().SetFaultTolerance(FaultTolerance(42)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(map[string]any{"input": 1})

			var out Outcome
			require.NotPanics(t, func() { out = tt.chain().Execute(ctx) })

			require.False(t, out.IsSuccess())
			msg, _ := out.Message()
			assert.True(t, strings.HasPrefix(msg, "pipeline build failed"), msg)
			assert.Equal(t, 0, ctx.Count())
		})
	}
}

func TestChain_FluentBuilderReturnsSelf(t *testing.T) {
	c := New()
	assert.Same(t, c, c.AddStep(&markStep{key: "a"}))
	assert.Same(t, c, c.AddSteps(&markStep{key: "b"}))
	assert.Same(t, c, c.Use(MiddlewareFunc(func(c *Context, next Handler) Outcome { return next(c) })))
	assert.Same(t, c, c.SetFaultTolerance(Lenient))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, Lenient, c.FaultTolerance())
}

func TestChain_StepNames(t *testing.T) {
	c := New().AddStep(validateStep{}).AddStep(&doubleStep{}).AddStep(NamedStep("named", nil))
	assert.Equal(t, []string{"chain.validateStep", "chain.doubleStep", "named"}, c.StepNames())
}

func TestChain_ConcurrentExecute(t *testing.T) {
	c := New().AddStep(validateStep{}).AddStep(doubleStep{})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if out := c.Execute(NewContext(map[string]any{"input": i})); !out.IsSuccess() {
				errs <- fmt.Errorf("input %d: %v", i, out)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 1, c.builds)
}
