package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Executor schedules and runs workflow graphs. Nodes become eligible
// when their dependencies finish; declared parallel groups run
// concurrently up to the graph's parallelism limit, everything else
// runs serially in ID order.
type Executor struct {
	logger      *slog.Logger
	conditions  *Registry
	runners     *RunnerRegistry
	cache       *Cache
	checkpoints CheckpointStore
	rollback    func(ctx context.Context, runID string) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithCache enables result caching for nodes that opt in.
func WithCache(c *Cache) ExecutorOption {
	return func(e *Executor) { e.cache = c }
}

// WithCheckpoints enables checkpoint persistence and resumption.
func WithCheckpoints(s CheckpointStore) ExecutorOption {
	return func(e *Executor) { e.checkpoints = s }
}

// WithRollback registers a hook invoked when a critical node fails,
// before the run is reported as failed.
func WithRollback(fn func(ctx context.Context, runID string) error) ExecutorOption {
	return func(e *Executor) { e.rollback = fn }
}

// NewExecutor creates an executor with the given condition and runner
// registries.
func NewExecutor(logger *slog.Logger, conditions *Registry, runners *RunnerRegistry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger:     logger.With("system", "workflow"),
		conditions: conditions,
		runners:    runners,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute validates the graph and runs it to completion with the given
// initial inputs. Every node receives the initial inputs overlaid with
// the outputs its dependencies delivered.
func (e *Executor) Execute(ctx context.Context, runID string, g *Graph, inputs map[string]any) (*RunResult, error) {
	state, err := e.prepare(g)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, runID, g, state, inputs)
}

// Resume restores a prior run from its checkpoint, then executes the
// remaining nodes. Without a checkpoint it behaves like Execute.
func (e *Executor) Resume(ctx context.Context, runID string, g *Graph, inputs map[string]any) (*RunResult, error) {
	state, err := e.prepare(g)
	if err != nil {
		return nil, err
	}

	if e.checkpoints != nil {
		cp, err := e.checkpoints.LoadCheckpoint(ctx, runID)
		switch {
		case err == nil:
			if cp.GraphID != g.ID {
				return nil, fmt.Errorf("checkpoint for run %s belongs to graph %s, not %s", runID, cp.GraphID, g.ID)
			}
			state.restore(cp)
			e.logger.Info("resuming from checkpoint", "run", runID, "nodes", len(cp.Nodes))
		case errors.Is(err, ErrNoCheckpoint):
		default:
			return nil, fmt.Errorf("loading checkpoint for run %s: %w", runID, err)
		}
	}
	return e.run(ctx, runID, g, state, inputs)
}

func (e *Executor) prepare(g *Graph) (*RunState, error) {
	g.Normalize()
	if err := NewValidator(e.conditions).Validate(g); err != nil {
		return nil, err
	}
	if missing := e.runners.Missing(g); len(missing) > 0 {
		return nil, fmt.Errorf("no runner registered for node kinds: %v", missing)
	}
	return NewRunState(g), nil
}

func (e *Executor) run(ctx context.Context, runID string, g *Graph, state *RunState, inputs map[string]any) (*RunResult, error) {
	started := time.Now().UTC()
	log := e.logger.With("run", runID, "graph", g.ID)

	if g.RunBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.RunBudget)
		defer cancel()
	}

	maxParallel := g.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	sem := semaphore.NewWeighted(int64(maxParallel))

	var aborted atomic.Bool
	for ctx.Err() == nil && !state.Complete() && !aborted.Load() {
		ready := state.ReadyNodes()
		if len(ready) == 0 {
			// Every dependency path resolves to a terminal state, so an
			// empty frontier with pending nodes means an unreachable
			// subgraph. Skip the remainder rather than spin.
			if state.Stalled() {
				log.Warn("run stalled, skipping unreachable nodes")
				e.skipPending(g, state)
			}
			break
		}

		grouped, serial := partitionReady(g, ready)

		var wg sync.WaitGroup
		for _, id := range grouped {
			if err := sem.Acquire(ctx, 1); err != nil {
				e.failRemaining(g, state, ready, err)
				break
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer sem.Release(1)
				if e.executeNode(ctx, log, runID, g, state, id, inputs) {
					aborted.Store(true)
				}
			}(id)
		}
		wg.Wait()

		for _, id := range serial {
			if aborted.Load() {
				break
			}
			if e.executeNode(ctx, log, runID, g, state, id, inputs) {
				aborted.Store(true)
			}
		}
	}

	if ctx.Err() != nil {
		log.Warn("run budget exhausted, failing unfinished nodes")
		e.failPending(g, state, ctx.Err())
		if !criticalsSucceeded(g, state) {
			aborted.Store(true)
		}
	}

	if aborted.Load() {
		e.skipPending(g, state)
		if e.rollback != nil {
			// Rollback gets a fresh context; the run's own may already
			// be past its deadline.
			rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if err := e.rollback(rbCtx, runID); err != nil {
				log.Error("rollback failed", "error", err)
			}
		}
	}

	result := buildResult(runID, g, state, started)
	result.Outputs = terminalOutputs(g, state)
	log.Info("run finished",
		"status", result.Status,
		"duration", result.Duration(),
		"failed", len(result.Failed),
		"skipped", len(result.Skipped))
	return result, nil
}

// executeNode runs one node through its condition, cache, and retry
// policy. It reports whether a critical node failed.
func (e *Executor) executeNode(ctx context.Context, log *slog.Logger, runID string, g *Graph, state *RunState, id string, initial map[string]any) bool {
	node, _ := g.Node(id)
	log = log.With("node", id)

	if err := ctx.Err(); err != nil {
		state.MarkFailed(id, NewNodeError(ErrorKindTimeout, id, err))
		return node.Critical
	}

	inputs, delivered := e.resolveInputs(g, state, node, initial)

	if len(g.IncomingEdges(id)) > 0 && !delivered {
		log.Debug("no incoming edge satisfied, skipping")
		state.MarkSkipped(id)
		return false
	}

	if allDepsSkipped(g, state, node) {
		log.Debug("all dependencies skipped, skipping")
		state.MarkSkipped(id)
		return false
	}

	if node.Condition != "" {
		ok, err := e.conditions.Eval(node.Condition, inputs)
		if err != nil {
			state.MarkFailed(id, err)
			return node.Critical
		}
		if !ok && node.SkipIfFalse {
			log.Debug("condition not met, skipping", "condition", node.Condition)
			state.MarkSkipped(id)
			return false
		}
	}

	var cacheKey string
	if e.cache != nil && node.Cache.Enabled {
		key, err := e.cache.Key(node, inputs)
		if err != nil {
			log.Warn("cache key unavailable", "error", err)
		} else {
			cacheKey = key
			if outputs, hit := e.cache.Get(key); hit {
				log.Debug("cache hit")
				state.MarkSucceeded(id, outputs, true)
				e.checkpoint(ctx, log, runID, g, state, node)
				return false
			}
		}
	}

	runner, err := e.runners.Resolve(node.Kind)
	if err != nil {
		state.MarkFailed(id, err)
		return node.Critical
	}

	for attempt := 0; ; attempt++ {
		state.MarkStarted(id)
		outputs, err := e.invoke(ctx, node, runner, inputs)
		if err == nil {
			state.MarkSucceeded(id, outputs, false)
			if cacheKey != "" {
				e.cache.Put(cacheKey, outputs, node.Cache.TTL)
			}
			e.checkpoint(ctx, log, runID, g, state, node)
			return false
		}

		kind := KindOf(err)
		if attempt >= node.Retry.MaxRetries || !node.Retry.Retryable(kind) || ctx.Err() != nil {
			log.Error("node failed", "kind", kind, "attempts", attempt+1, "error", err)
			state.MarkFailed(id, err)
			return node.Critical
		}

		delay := node.Retry.CalculateDelay(attempt)
		log.Warn("node attempt failed, retrying", "kind", kind, "attempt", attempt+1, "delay", delay)
		state.MarkRetrying(id, err)
		if !sleep(ctx, delay) {
			state.MarkFailed(id, ctx.Err())
			return node.Critical
		}
	}
}

// invoke runs the node's runner with its timeout and a panic boundary.
func (e *Executor) invoke(ctx context.Context, node *Node, runner NodeRunner, inputs map[string]any) (outputs map[string]any, err error) {
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = NewNodeError(ErrorKindInternal, node.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	outputs, err = runner.Run(ctx, inputs)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = NewNodeError(ErrorKindTimeout, node.ID, err)
	}
	return outputs, err
}

// resolveInputs overlays dependency outputs on the run's initial inputs.
// Edges project and gate what a dependency delivers; dependencies
// without edges deliver their outputs wholesale. delivered reports
// whether any incoming edge passed its condition.
func (e *Executor) resolveInputs(g *Graph, state *RunState, node *Node, initial map[string]any) (map[string]any, bool) {
	inputs := make(map[string]any, len(initial))
	maps.Copy(inputs, initial)

	edgeSources := make(map[string]bool)
	delivered := false
	for _, edge := range g.IncomingEdges(node.ID) {
		edgeSources[edge.From] = true
		out, ok := state.Outputs(edge.From)
		if !ok {
			continue
		}
		if edge.Condition != "" {
			pass, err := e.conditions.Eval(edge.Condition, out)
			if err != nil || !pass {
				continue
			}
		}
		maps.Copy(inputs, edge.Deliver(out))
		delivered = true
	}

	for _, dep := range node.Dependencies {
		if edgeSources[dep] {
			continue
		}
		if out, ok := state.Outputs(dep); ok {
			maps.Copy(inputs, out)
		}
	}
	return inputs, delivered
}

func (e *Executor) checkpoint(ctx context.Context, log *slog.Logger, runID string, g *Graph, state *RunState, node *Node) {
	if !node.Checkpoint || e.checkpoints == nil {
		return
	}
	cp := checkpointFrom(runID, g, state)
	if err := e.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		log.Warn("checkpoint save failed", "error", err)
	}
}

func (e *Executor) skipPending(g *Graph, state *RunState) {
	for _, n := range g.Nodes {
		if state.Status(n.ID).Status == StatusPending {
			state.MarkSkipped(n.ID)
		}
	}
}

func (e *Executor) failRemaining(g *Graph, state *RunState, ready []string, err error) {
	for _, id := range ready {
		if state.Status(id).Status == StatusPending {
			state.MarkFailed(id, err)
		}
	}
}

// failPending force-fails every node still pending once the run budget
// is spent, so a stalled run never reports unfinished work as skipped.
func (e *Executor) failPending(g *Graph, state *RunState, cause error) {
	for _, n := range g.Nodes {
		if state.Status(n.ID).Status == StatusPending {
			state.MarkFailed(n.ID, NewNodeError(ErrorKindTimeout, n.ID, cause))
		}
	}
}

// criticalsSucceeded reports whether every critical node finished
// successfully.
func criticalsSucceeded(g *Graph, state *RunState) bool {
	for _, n := range g.Nodes {
		if n.Critical && state.Status(n.ID).Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// allDepsSkipped reports whether a node has dependencies and every one
// of them was skipped, leaving it nothing to work with.
func allDepsSkipped(g *Graph, state *RunState, node *Node) bool {
	if len(node.Dependencies) == 0 {
		return false
	}
	for _, dep := range node.Dependencies {
		if state.Status(dep).Status != StatusSkipped {
			return false
		}
	}
	return true
}

// partitionReady splits the frontier into nodes that belong to a
// declared parallel group, which run concurrently, and the rest, which
// run serially in sorted order.
func partitionReady(g *Graph, ready []string) (grouped, serial []string) {
	inGroup := make(map[string]bool)
	for _, group := range g.ParallelGroups {
		for _, id := range group {
			inGroup[id] = true
		}
	}
	for _, id := range ready {
		if inGroup[id] {
			grouped = append(grouped, id)
		} else {
			serial = append(serial, id)
		}
	}
	return grouped, serial
}

// terminalOutputs collects the outputs of succeeded nodes nothing
// depends on, which are the run's end products.
func terminalOutputs(g *Graph, state *RunState) map[string]any {
	out := make(map[string]any)
	for _, n := range g.Nodes {
		if len(g.Dependents(n.ID)) > 0 {
			continue
		}
		if nodeOut, ok := state.Outputs(n.ID); ok {
			maps.Copy(out, nodeOut)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
