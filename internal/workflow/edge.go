package workflow

// Edge is a directed, optionally conditional data channel between nodes.
// The condition is evaluated against the source node's output; only a
// satisfied edge delivers its mapped outputs downstream.
type Edge struct {
	From      string            `json:"from"`
	To        string            `json:"to"`
	Condition string            `json:"condition,omitempty"`
	Mapping   map[string]string `json:"mapping,omitempty"`
}

// Deliver projects the source node's output through the edge's key
// mapping. With no mapping the output passes through unchanged.
func (e Edge) Deliver(output map[string]any) map[string]any {
	if len(e.Mapping) == 0 {
		out := make(map[string]any, len(output))
		for k, v := range output {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(e.Mapping))
	for from, to := range e.Mapping {
		if v, ok := output[from]; ok {
			out[to] = v
		}
	}
	return out
}
