package workflow

import (
	"context"
	"fmt"
)

// NodeRunner executes one kind of node. Implementations receive the
// node's resolved inputs and return named outputs for downstream edges.
type NodeRunner interface {
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// RunnerFunc adapts a function to the NodeRunner interface.
type RunnerFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

func (f RunnerFunc) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f(ctx, inputs)
}

// RunnerRegistry maps node kinds to their runners.
type RunnerRegistry struct {
	runners map[string]NodeRunner
}

// NewRunnerRegistry creates an empty runner registry.
func NewRunnerRegistry() *RunnerRegistry {
	return &RunnerRegistry{runners: make(map[string]NodeRunner)}
}

// Register binds a runner to a node kind, replacing any previous binding.
func (r *RunnerRegistry) Register(kind string, runner NodeRunner) {
	r.runners[kind] = runner
}

// Resolve returns the runner for a node kind.
func (r *RunnerRegistry) Resolve(kind string) (NodeRunner, error) {
	runner, ok := r.runners[kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for node kind: %q", kind)
	}
	return runner, nil
}

// Kinds reports whether every node in the graph has a registered runner,
// returning the missing kinds.
func (r *RunnerRegistry) Missing(g *Graph) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, n := range g.Nodes {
		if _, ok := r.runners[n.Kind]; !ok && !seen[n.Kind] {
			missing = append(missing, n.Kind)
			seen[n.Kind] = true
		}
	}
	return missing
}
