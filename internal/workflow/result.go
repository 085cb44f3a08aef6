package workflow

import "time"

// RunStatus is the overall outcome of a workflow run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	// RunPartial means at least one non-critical node failed or was
	// skipped but every critical node succeeded.
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// RunResult summarizes a finished workflow run.
type RunResult struct {
	RunID      string               `json:"run_id"`
	GraphID    string               `json:"graph_id"`
	Status     RunStatus            `json:"status"`
	Nodes      map[string]NodeState `json:"nodes"`
	Order      []string             `json:"order"`
	Outputs    map[string]any       `json:"outputs,omitempty"`
	Failed     []string             `json:"failed,omitempty"`
	Skipped    []string             `json:"skipped,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run produced a usable result, fully or
// partially.
func (r *RunResult) Succeeded() bool {
	return r.Status == RunSucceeded || r.Status == RunPartial
}

func buildResult(runID string, g *Graph, state *RunState, started time.Time) *RunResult {
	nodes, order := state.Snapshot()

	result := &RunResult{
		RunID:      runID,
		GraphID:    g.ID,
		Status:     RunSucceeded,
		Nodes:      nodes,
		Order:      order,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	criticalFailure := false
	for _, n := range g.Nodes {
		st := nodes[n.ID]
		switch st.Status {
		case StatusFailed:
			result.Failed = append(result.Failed, n.ID)
			if n.Critical {
				criticalFailure = true
			}
		case StatusSkipped:
			result.Skipped = append(result.Skipped, n.ID)
		}
	}

	switch {
	case criticalFailure:
		result.Status = RunFailed
	case len(result.Failed) > 0 || len(result.Skipped) > 0:
		result.Status = RunPartial
	}
	return result
}
