package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passthrough(key string, value any) RunnerFunc {
	return func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{key: value}, nil
	}
}

func TestExecuteLinear(t *testing.T) {
	g := &Graph{
		ID: "linear",
		Nodes: []Node{
			{ID: "a", Kind: "first"},
			{ID: "b", Kind: "second", Dependencies: []string{"a"}},
			{ID: "c", Kind: "third", Dependencies: []string{"b"}},
		},
	}

	runners := NewRunnerRegistry()
	runners.Register("first", passthrough("from_a", 1))
	runners.Register("second", RunnerFunc(func(_ context.Context, inputs map[string]any) (map[string]any, error) {
		// Dependency outputs overlay the initial inputs.
		require.Equal(t, 1, inputs["from_a"])
		require.Equal(t, "doc-1", inputs["document_id"])
		return map[string]any{"from_b": 2}, nil
	}))
	runners.Register("third", passthrough("from_c", 3))

	exec := NewExecutor(testLogger(), NewRegistry(), runners)
	result, err := exec.Execute(context.Background(), "run-1", g, map[string]any{"document_id": "doc-1"})
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, result.Status)
	assert.True(t, result.Succeeded())
	assert.Equal(t, []string{"a", "b", "c"}, result.Order)
	assert.Equal(t, map[string]any{"from_c": 3}, result.Outputs)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, StatusSucceeded, result.Nodes[id].Status)
	}
}

func TestExecuteRetry(t *testing.T) {
	t.Run("transient failure retried to success", func(t *testing.T) {
		var calls atomic.Int32
		runners := NewRunnerRegistry()
		runners.Register("flaky", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
			if calls.Add(1) < 3 {
				return nil, NewNodeError(ErrorKindIO, "a", errors.New("transient"))
			}
			return map[string]any{"ok": true}, nil
		}))

		g := &Graph{ID: "g", Nodes: []Node{{
			ID: "a", Kind: "flaky",
			Retry: RetryPolicy{MaxRetries: 3, Backoff: BackoffConstant, Delay: time.Millisecond},
		}}}

		result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
		require.NoError(t, err)

		assert.Equal(t, RunSucceeded, result.Status)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, 3, result.Nodes["a"].Attempts)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		var calls atomic.Int32
		runners := NewRunnerRegistry()
		runners.Register("broken", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
			calls.Add(1)
			return nil, NewNodeError(ErrorKindIO, "a", errors.New("still broken"))
		}))

		g := &Graph{ID: "g", Nodes: []Node{{
			ID: "a", Kind: "broken",
			Retry: RetryPolicy{MaxRetries: 2, Backoff: BackoffConstant, Delay: time.Millisecond},
		}}}

		result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
		require.NoError(t, err)

		assert.Equal(t, RunPartial, result.Status)
		assert.Equal(t, int32(3), calls.Load())
		assert.Contains(t, result.Failed, "a")
	})

	t.Run("unlisted error kind fails immediately", func(t *testing.T) {
		var calls atomic.Int32
		runners := NewRunnerRegistry()
		runners.Register("broken", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
			calls.Add(1)
			return nil, NewNodeError(ErrorKindValidation, "a", errors.New("bad record"))
		}))

		g := &Graph{ID: "g", Nodes: []Node{{
			ID: "a", Kind: "broken",
			Retry: RetryPolicy{MaxRetries: 5, Delay: time.Millisecond, RetryOn: []ErrorKind{ErrorKindIO}},
		}}}

		result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, result.Failed, "a")
	})
}

func TestExecuteCache(t *testing.T) {
	var calls atomic.Int32
	runners := NewRunnerRegistry()
	runners.Register("classify", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		calls.Add(1)
		return map[string]any{"doc_type": "moa_aoa"}, nil
	}))

	g := &Graph{ID: "g", Nodes: []Node{{
		ID: "a", Kind: "classify",
		Cache: CachePolicy{Enabled: true, TTL: time.Hour, Key: CacheKeyInputs},
	}}}

	exec := NewExecutor(testLogger(), NewRegistry(), runners, WithCache(NewCache()))
	inputs := map[string]any{"document_id": "doc-1"}

	first, err := exec.Execute(context.Background(), "run-1", g, inputs)
	require.NoError(t, err)
	assert.False(t, first.Nodes["a"].Cached)

	second, err := exec.Execute(context.Background(), "run-2", g, inputs)
	require.NoError(t, err)
	assert.True(t, second.Nodes["a"].Cached)
	assert.Equal(t, map[string]any{"doc_type": "moa_aoa"}, second.Outputs)
	assert.Equal(t, int32(1), calls.Load())

	// Different inputs miss.
	third, err := exec.Execute(context.Background(), "run-3", g, map[string]any{"document_id": "doc-2"})
	require.NoError(t, err)
	assert.False(t, third.Nodes["a"].Cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecuteConditions(t *testing.T) {
	conditions := NewRegistry()
	conditions.Register("doc_type_known", func(_ string, data map[string]any) bool {
		dt, _ := data["doc_type"].(string)
		return dt != "" && dt != "unknown"
	})

	newGraph := func(skipIfFalse bool) *Graph {
		return &Graph{ID: "g", Nodes: []Node{
			{ID: "classify", Kind: "classify"},
			{ID: "extract", Kind: "extract", Dependencies: []string{"classify"},
				Condition: "doc_type_known", SkipIfFalse: skipIfFalse},
			{ID: "merge", Kind: "merge", Dependencies: []string{"extract"}},
		}}
	}

	newRunners := func(docType string, extractRan *atomic.Bool) *RunnerRegistry {
		runners := NewRunnerRegistry()
		runners.Register("classify", passthrough("doc_type", docType))
		runners.Register("extract", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
			extractRan.Store(true)
			return map[string]any{"fields": map[string]any{}}, nil
		}))
		runners.Register("merge", passthrough("record", "r"))
		return runners
	}

	t.Run("false condition with skip gate skips the subtree", func(t *testing.T) {
		var extractRan atomic.Bool
		exec := NewExecutor(testLogger(), conditions, newRunners("unknown", &extractRan))

		result, err := exec.Execute(context.Background(), "run-1", newGraph(true), nil)
		require.NoError(t, err)

		assert.False(t, extractRan.Load())
		assert.Equal(t, RunPartial, result.Status)
		assert.ElementsMatch(t, []string{"extract", "merge"}, result.Skipped)
	})

	t.Run("false condition without skip gate still runs", func(t *testing.T) {
		var extractRan atomic.Bool
		exec := NewExecutor(testLogger(), conditions, newRunners("unknown", &extractRan))

		result, err := exec.Execute(context.Background(), "run-1", newGraph(false), nil)
		require.NoError(t, err)

		assert.True(t, extractRan.Load())
		assert.Equal(t, RunSucceeded, result.Status)
	})

	t.Run("true condition runs", func(t *testing.T) {
		var extractRan atomic.Bool
		exec := NewExecutor(testLogger(), conditions, newRunners("moa_aoa", &extractRan))

		result, err := exec.Execute(context.Background(), "run-1", newGraph(true), nil)
		require.NoError(t, err)

		assert.True(t, extractRan.Load())
		assert.Equal(t, RunSucceeded, result.Status)
	})
}

func TestExecuteEdgeGating(t *testing.T) {
	runners := NewRunnerRegistry()
	runners.Register("step", passthrough("x", 1))

	g := &Graph{
		ID: "g",
		Nodes: []Node{
			{ID: "a", Kind: "step"},
			{ID: "b", Kind: "step"},
		},
		Edges: []Edge{{From: "a", To: "b", Condition: "never"}},
	}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, result.Nodes["a"].Status)
	assert.Equal(t, StatusSkipped, result.Nodes["b"].Status)
	assert.Equal(t, RunPartial, result.Status)
}

func TestExecuteEdgeMapping(t *testing.T) {
	runners := NewRunnerRegistry()
	runners.Register("producer", passthrough("internal_name", "value"))
	runners.Register("consumer", RunnerFunc(func(_ context.Context, inputs map[string]any) (map[string]any, error) {
		require.Equal(t, "value", inputs["renamed"])
		_, leaked := inputs["internal_name"]
		require.False(t, leaked, "unmapped keys must not pass through")
		return map[string]any{"done": true}, nil
	}))

	g := &Graph{
		ID: "g",
		Nodes: []Node{
			{ID: "a", Kind: "producer"},
			{ID: "b", Kind: "consumer"},
		},
		Edges: []Edge{{From: "a", To: "b", Mapping: map[string]string{"internal_name": "renamed"}}},
	}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)
	assert.Equal(t, RunSucceeded, result.Status)
}

func TestExecuteCriticalFailure(t *testing.T) {
	var rolledBack atomic.Value
	runners := NewRunnerRegistry()
	runners.Register("store", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		return nil, NewNodeError(ErrorKindStorage, "store", errors.New("disk full"))
	}))
	runners.Register("step", passthrough("x", 1))

	g := &Graph{ID: "g", Nodes: []Node{
		{ID: "a", Kind: "step"},
		{ID: "store", Kind: "store", Dependencies: []string{"a"}, Critical: true},
		{ID: "after", Kind: "step", Dependencies: []string{"store"}},
	}}

	exec := NewExecutor(testLogger(), NewRegistry(), runners, WithRollback(func(_ context.Context, runID string) error {
		rolledBack.Store(runID)
		return nil
	}))

	result, err := exec.Execute(context.Background(), "run-9", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunFailed, result.Status)
	assert.False(t, result.Succeeded())
	assert.Contains(t, result.Failed, "store")
	assert.Contains(t, result.Skipped, "after")
	assert.Equal(t, "run-9", rolledBack.Load())
}

func TestExecuteNonCriticalFailure(t *testing.T) {
	rollbackCalled := false
	runners := NewRunnerRegistry()
	runners.Register("step", passthrough("x", 1))
	runners.Register("broken", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		return nil, NewNodeError(ErrorKindExtraction, "b", errors.New("no match"))
	}))

	g := &Graph{ID: "g", Nodes: []Node{
		{ID: "a", Kind: "step"},
		{ID: "b", Kind: "broken", Dependencies: []string{"a"}},
		{ID: "c", Kind: "step", Dependencies: []string{"a"}},
	}}

	exec := NewExecutor(testLogger(), NewRegistry(), runners, WithRollback(func(context.Context, string) error {
		rollbackCalled = true
		return nil
	}))

	result, err := exec.Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunPartial, result.Status)
	assert.Equal(t, StatusSucceeded, result.Nodes["c"].Status)
	assert.False(t, rollbackCalled, "non-critical failures must not roll back")
}

func TestExecuteFailedDependencyBlocksDependents(t *testing.T) {
	var bRan, cRan atomic.Bool
	runners := NewRunnerRegistry()
	runners.Register("broken", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		return nil, NewNodeError(ErrorKindExtraction, "a", errors.New("no match"))
	}))
	runners.Register("second", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		bRan.Store(true)
		return nil, nil
	}))
	runners.Register("third", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		cRan.Store(true)
		return nil, nil
	}))

	g := &Graph{ID: "g", Nodes: []Node{
		{ID: "a", Kind: "broken"},
		{ID: "b", Kind: "second", Dependencies: []string{"a"}},
		{ID: "c", Kind: "third", Dependencies: []string{"b"}},
	}}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunPartial, result.Status)
	assert.Equal(t, StatusFailed, result.Nodes["a"].Status)
	assert.Equal(t, StatusSkipped, result.Nodes["b"].Status)
	assert.Equal(t, StatusSkipped, result.Nodes["c"].Status)
	assert.False(t, bRan.Load(), "dependent of a failed node must not start")
	assert.False(t, cRan.Load(), "transitive dependent of a failed node must not start")
}

func TestExecuteRunBudget(t *testing.T) {
	var storeRan atomic.Bool
	var rolledBack atomic.Bool
	runners := NewRunnerRegistry()
	runners.Register("slow", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		// Ignores the run context and outlives the budget.
		time.Sleep(120 * time.Millisecond)
		return map[string]any{"segments": 4}, nil
	}))
	runners.Register("persist", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		storeRan.Store(true)
		return nil, nil
	}))

	g := &Graph{
		ID:        "g",
		RunBudget: 50 * time.Millisecond,
		Nodes: []Node{
			{ID: "a", Kind: "slow"},
			{ID: "store", Kind: "persist", Critical: true, Dependencies: []string{"a"}},
		},
	}

	exec := NewExecutor(testLogger(), NewRegistry(), runners, WithRollback(func(context.Context, string) error {
		rolledBack.Store(true)
		return nil
	}))

	result, err := exec.Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunFailed, result.Status)
	assert.False(t, storeRan.Load(), "node past the budget must not start")
	assert.True(t, rolledBack.Load(), "incomplete critical node must trigger rollback")

	store := result.Nodes["store"]
	assert.Equal(t, StatusFailed, store.Status)
	assert.Contains(t, store.Error, "timeout")
}

func TestExecutePanicBoundary(t *testing.T) {
	runners := NewRunnerRegistry()
	runners.Register("panics", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		panic("boom")
	}))

	g := &Graph{ID: "g", Nodes: []Node{{ID: "a", Kind: "panics"}}}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Failed, "a")
	assert.Contains(t, result.Nodes["a"].Error, "panic")
	assert.Contains(t, result.Nodes["a"].Error, "internal")
}

func TestExecuteNodeTimeout(t *testing.T) {
	runners := NewRunnerRegistry()
	runners.Register("slow", RunnerFunc(func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	g := &Graph{ID: "g", Nodes: []Node{{ID: "a", Kind: "slow", Timeout: 10 * time.Millisecond}}}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Failed, "a")
	assert.Contains(t, result.Nodes["a"].Error, "timeout")
}

func TestExecuteParallelGroup(t *testing.T) {
	var running, peak atomic.Int32
	concurrent := RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return map[string]any{"ok": true}, nil
	})

	runners := NewRunnerRegistry()
	runners.Register("step", passthrough("x", 1))
	runners.Register("parallel", concurrent)

	g := &Graph{
		ID: "g",
		Nodes: []Node{
			{ID: "root", Kind: "step"},
			{ID: "left", Kind: "parallel", Dependencies: []string{"root"}},
			{ID: "right", Kind: "parallel", Dependencies: []string{"root"}},
			{ID: "sink", Kind: "step", Dependencies: []string{"left", "right"}},
		},
		MaxParallel:    2,
		ParallelGroups: [][]string{{"left", "right"}},
	}

	result, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, result.Status)
	assert.Equal(t, int32(2), peak.Load(), "group members should overlap")
}

func TestExecuteValidation(t *testing.T) {
	t.Run("invalid graph rejected before running", func(t *testing.T) {
		g := &Graph{ID: "g", Nodes: []Node{{ID: "a", Kind: "step", Dependencies: []string{"missing"}}}}
		runners := NewRunnerRegistry()
		runners.Register("step", passthrough("x", 1))

		_, err := NewExecutor(testLogger(), NewRegistry(), runners).Execute(context.Background(), "run-1", g, nil)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing runner rejected", func(t *testing.T) {
		g := &Graph{ID: "g", Nodes: []Node{{ID: "a", Kind: "unregistered"}}}

		_, err := NewExecutor(testLogger(), NewRegistry(), NewRunnerRegistry()).Execute(context.Background(), "run-1", g, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unregistered")
	})
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	counts := map[string]*atomic.Int32{
		"a": {}, "b": {}, "c": {},
	}
	fail := atomic.Bool{}
	fail.Store(true)

	runners := NewRunnerRegistry()
	for _, id := range []string{"a", "b"} {
		runners.Register(id, RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
			counts[id].Add(1)
			return map[string]any{id: true}, nil
		}))
	}
	runners.Register("c", RunnerFunc(func(context.Context, map[string]any) (map[string]any, error) {
		counts["c"].Add(1)
		if fail.Load() {
			return nil, NewNodeError(ErrorKindStorage, "c", errors.New("unavailable"))
		}
		return map[string]any{"c": true}, nil
	}))

	g := &Graph{ID: "g", Nodes: []Node{
		{ID: "a", Kind: "a"},
		{ID: "b", Kind: "b", Dependencies: []string{"a"}, Checkpoint: true},
		{ID: "c", Kind: "c", Dependencies: []string{"b"}},
	}}

	store := NewMemoryCheckpointStore()
	exec := NewExecutor(testLogger(), NewRegistry(), runners, WithCheckpoints(store))

	first, err := exec.Execute(ctx, "run-1", g, nil)
	require.NoError(t, err)
	require.Equal(t, RunPartial, first.Status)
	require.Contains(t, first.Failed, "c")

	fail.Store(false)
	resumed, err := exec.Resume(ctx, "run-1", g, nil)
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, resumed.Status)
	assert.Equal(t, int32(1), counts["a"].Load(), "checkpointed nodes must not re-run")
	assert.Equal(t, int32(1), counts["b"].Load())
	assert.Equal(t, int32(2), counts["c"].Load())

	t.Run("no checkpoint behaves like execute", func(t *testing.T) {
		result, err := exec.Resume(ctx, "run-without-checkpoint", g, nil)
		require.NoError(t, err)
		assert.Equal(t, RunSucceeded, result.Status)
	})

	t.Run("graph mismatch rejected", func(t *testing.T) {
		other := &Graph{ID: "other", Nodes: []Node{{ID: "a", Kind: "a"}}}
		require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{RunID: "run-x", GraphID: "g"}))
		_, err := exec.Resume(ctx, "run-x", other, nil)
		require.Error(t, err)
	})
}
