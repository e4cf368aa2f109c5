package steps

import (
	"errors"
	"testing"

	"github.com/nomis52/eventchain/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot copies the context so tests can inspect values the chain clears.
type snapshot struct {
	values map[string]any
}

func (s *snapshot) Execute(c *chain.Context) chain.Outcome {
	s.values = make(map[string]any)
	for _, k := range c.Keys() {
		v, _ := c.Value(k)
		s.values[k] = v
	}
	return chain.Success()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantMsg string
	}{
		{name: "positive", values: map[string]any{InputKey: 21}},
		{name: "zero", values: map[string]any{InputKey: 0}},
		{name: "negative", values: map[string]any{InputKey: -10}, wantMsg: "input must be positive, got -10"},
		{name: "missing", values: nil, wantMsg: "input is required"},
		{name: "wrong type", values: map[string]any{InputKey: "21"}, wantMsg: "input must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate{}.Execute(chain.NewContext(tt.values))
			if tt.wantMsg == "" {
				assert.True(t, out.IsSuccess())
				return
			}
			msg, failed := out.Message()
			assert.True(t, failed)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestDouble(t *testing.T) {
	c := chain.NewContext(map[string]any{InputKey: 21})
	require.True(t, Double{}.Execute(c).IsSuccess())
	assert.Equal(t, 42, chain.GetOr(c, OutputKey, 0))

	out := Double{}.Execute(chain.NewContext(nil))
	assert.False(t, out.IsSuccess())
}

type failingSink struct{}

func (failingSink) Save(Record) error { return errors.New("disk full") }

func TestSave(t *testing.T) {
	t.Run("saves output", func(t *testing.T) {
		sink := NewMemorySink(0)
		c := chain.NewContext(map[string]any{OutputKey: 42, chain.RunIDKey: "run-1"})

		require.True(t, (&Save{Sink: sink}).Execute(c).IsSuccess())

		rec, err := sink.Last()
		require.NoError(t, err)
		assert.Equal(t, 42, rec.Value)
		assert.Equal(t, "run-1", rec.RunID)
	})

	t.Run("missing output", func(t *testing.T) {
		out := (&Save{Sink: NewMemorySink(0)}).Execute(chain.NewContext(nil))
		msg, _ := out.Message()
		assert.Equal(t, "output is required", msg)
	})

	t.Run("sink error", func(t *testing.T) {
		out := (&Save{Sink: failingSink{}}).Execute(chain.NewContext(map[string]any{OutputKey: 1}))
		msg, _ := out.Message()
		assert.Equal(t, "saving output: disk full", msg)
	})

	t.Run("no sink", func(t *testing.T) {
		out := (&Save{}).Execute(chain.NewContext(map[string]any{OutputKey: 1}))
		assert.False(t, out.IsSuccess())
	})
}

func TestMemorySink_Limit(t *testing.T) {
	sink := NewMemorySink(2)
	for i := 1; i <= 3; i++ {
		require.NoError(t, sink.Save(Record{Value: i}))
	}

	recs := sink.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].Value)
	assert.Equal(t, 3, recs[1].Value)

	_, err := NewMemorySink(0).Last()
	assert.Error(t, err)
}

func TestChain_RoundTrip(t *testing.T) {
	snap := &snapshot{}
	c := chain.New().AddSteps(Validate{}, Double{}, snap)

	ctx := chain.NewContext(map[string]any{InputKey: 21})
	out := c.Execute(ctx)

	assert.True(t, out.IsSuccess())
	assert.Equal(t, 42, snap.values[OutputKey])
	assert.Equal(t, 0, ctx.Count(), "context is cleared after the run")
}

func TestChain_NegativeInput(t *testing.T) {
	sink := NewMemorySink(0)
	c := chain.New().AddSteps(Validate{}, Double{}, &Save{Sink: sink})

	ctx := chain.NewContext(map[string]any{InputKey: -10})
	out := c.Execute(ctx)

	msg, failed := out.Message()
	assert.True(t, failed)
	assert.Contains(t, msg, "must be positive")
	assert.Empty(t, sink.Records(), "strict halts before Save")
	assert.Equal(t, 0, ctx.Count())
}

func TestChain_SaveWithRunID(t *testing.T) {
	sink := NewMemorySink(0)
	c := chain.New().AddSteps(Validate{}, Double{}, &Save{Sink: sink})

	require.True(t, c.Execute(chain.NewContext(map[string]any{InputKey: 5})).IsSuccess())

	rec, err := sink.Last()
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Value)
	assert.NotEmpty(t, rec.RunID)
}
