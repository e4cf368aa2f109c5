package runner

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryAt(id string, at time.Time) RunSummary {
	return RunSummary{ID: id, State: RunStateIdle, StartedAt: &at, EndedAt: &at}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore(0)
	require.NotNil(t, store)
	assert.Empty(t, store.History())
	assert.Equal(t, defaultMaxHistorySize, store.maxCount)
}

func TestMemoryStore_SaveMultiple(t *testing.T) {
	store := NewMemoryStore(0)

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(summaryAt(fmt.Sprintf("run-%d", i), now.Add(time.Duration(i)*time.Hour))))
	}

	runs := store.History()
	require.Len(t, runs, 5)
	assert.Equal(t, "run-4", runs[0].ID, "most recent first")
	assert.Equal(t, "run-0", runs[4].ID)
}

func TestMemoryStore_Evicts(t *testing.T) {
	store := NewMemoryStore(2)
	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(summaryAt(fmt.Sprintf("run-%d", i), now)))
	}

	runs := store.History()
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)

	_, ok := store.Get("run-0")
	assert.False(t, ok)
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Save(summaryAt("abc", time.Now())))

	run, ok := store.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "abc", run.ID)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestMemoryStore_SaveRejectsIncomplete(t *testing.T) {
	store := NewMemoryStore(0)
	assert.Error(t, store.Save(RunSummary{}))

	assert.Error(t, store.Save(RunSummary{ID: "x"}))
	assert.Empty(t, store.History())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(0)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Save(summaryAt(fmt.Sprintf("run-%d", i), now))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.History()
		}()
	}
	wg.Wait()

	assert.Len(t, store.History(), 10)
}

func TestRunSummary(t *testing.T) {
	start := time.Now()
	end := start.Add(3 * time.Second)

	s := RunSummary{StartedAt: &start}
	assert.Zero(t, s.Duration())
	assert.False(t, s.Succeeded())

	s.EndedAt = &end
	assert.Equal(t, 3*time.Second, s.Duration())
	assert.True(t, s.Succeeded())

	s.Error = "boom"
	assert.False(t, s.Succeeded())
}

func TestRunState(t *testing.T) {
	assert.Equal(t, "idle", RunStateIdle.String())
	assert.Equal(t, "running", RunStateRunning.String())
	assert.Equal(t, "unknown", RunState(7).String())

	b, err := RunStateRunning.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"running"`, string(b))
}

func TestRunState_JSONRoundTrip(t *testing.T) {
	var s RunState
	require.NoError(t, s.UnmarshalJSON([]byte(`"running"`)))
	assert.Equal(t, RunStateRunning, s)
	assert.Error(t, s.UnmarshalJSON([]byte(`"paused"`)))
}
