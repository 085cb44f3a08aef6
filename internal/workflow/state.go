package workflow

import (
	"sort"
	"sync"
	"time"
)

// NodeState tracks the execution progress of a single node within a run.
type NodeState struct {
	Status     NodeStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	Cached     bool       `json:"cached,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at,omitzero"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

// RunState holds the mutable state of a workflow run. All methods are
// safe for concurrent use.
type RunState struct {
	mu      sync.Mutex
	graph   *Graph
	nodes   map[string]*NodeState
	outputs map[string]map[string]any
	order   []string
}

// NewRunState initializes run state with every node pending.
func NewRunState(graph *Graph) *RunState {
	s := &RunState{
		graph:   graph,
		nodes:   make(map[string]*NodeState, len(graph.Nodes)),
		outputs: make(map[string]map[string]any, len(graph.Nodes)),
	}
	for _, n := range graph.Nodes {
		s.nodes[n.ID] = &NodeState{Status: StatusPending}
	}
	return s
}

// ReadyNodes returns the IDs of pending nodes whose dependencies all
// resolved without failing, sorted for deterministic scheduling.
func (s *RunState) ReadyNodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []string
	for _, n := range s.graph.Nodes {
		st := s.nodes[n.ID]
		if st.Status != StatusPending {
			continue
		}
		if s.depsSatisfied(n) {
			ready = append(ready, n.ID)
		}
	}
	sort.Strings(ready)
	return ready
}

// depsSatisfied reports whether every dependency succeeded or was
// skipped. A failed dependency permanently blocks its dependents; the
// stall sweep marks them skipped.
func (s *RunState) depsSatisfied(n Node) bool {
	for _, dep := range n.Dependencies {
		st, ok := s.nodes[dep]
		if !ok || (st.Status != StatusSucceeded && st.Status != StatusSkipped) {
			return false
		}
	}
	return true
}

// MarkStarted transitions a node to running and increments its attempt
// counter.
func (s *RunState) MarkStarted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.nodes[id]
	if st.StartedAt.IsZero() {
		st.StartedAt = time.Now().UTC()
	}
	st.Status = StatusRunning
	st.Attempts++
}

// MarkRetrying records a failed attempt that will be retried.
func (s *RunState) MarkRetrying(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.nodes[id]
	st.Status = StatusRetrying
	st.Error = err.Error()
}

// MarkSucceeded records a successful node with its outputs.
func (s *RunState) MarkSucceeded(id string, outputs map[string]any, cached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.nodes[id]
	st.Status = StatusSucceeded
	st.Cached = cached
	st.Error = ""
	st.FinishedAt = time.Now().UTC()
	s.outputs[id] = outputs
	s.order = append(s.order, id)
}

// MarkFailed records a node that exhausted its retries.
func (s *RunState) MarkFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.nodes[id]
	st.Status = StatusFailed
	st.Error = err.Error()
	st.FinishedAt = time.Now().UTC()
	s.order = append(s.order, id)
}

// MarkSkipped records a node that will not run this pass.
func (s *RunState) MarkSkipped(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.nodes[id]
	st.Status = StatusSkipped
	st.FinishedAt = time.Now().UTC()
	s.order = append(s.order, id)
}

// Status returns a copy of the node's state.
func (s *RunState) Status(id string) NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.nodes[id]; ok {
		return *st
	}
	return NodeState{}
}

// Outputs returns the outputs of a succeeded node.
func (s *RunState) Outputs(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outputs[id]
	return out, ok
}

// Complete reports whether every node has reached a terminal status.
func (s *RunState) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.nodes {
		if !st.Status.Terminal() {
			return false
		}
	}
	return true
}

// Stalled reports whether no node is running and at least one pending
// node can never become ready, which happens when a dependency failed
// and blocked its downstream subtree.
func (s *RunState) Stalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.nodes {
		if st.Status == StatusRunning || st.Status == StatusRetrying {
			return false
		}
	}
	for _, n := range s.graph.Nodes {
		if s.nodes[n.ID].Status == StatusPending && s.depsSatisfied(n) {
			return false
		}
	}
	for _, st := range s.nodes {
		if st.Status == StatusPending {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of all node states keyed by node ID, plus the
// order nodes finished in.
func (s *RunState) Snapshot() (map[string]NodeState, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make(map[string]NodeState, len(s.nodes))
	for id, st := range s.nodes {
		states[id] = *st
	}
	order := make([]string, len(s.order))
	copy(order, s.order)
	return states, order
}
