package workflow

import "time"

// Graph is a directed acyclic workflow definition. Nodes declare their
// dependencies explicitly; edges add data mappings and conditions on
// top of those dependencies.
type Graph struct {
	ID             string        `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Nodes          []Node        `json:"nodes" yaml:"nodes"`
	Edges          []Edge        `json:"edges,omitempty" yaml:"edges,omitempty"`
	MaxParallel    int           `json:"max_parallel,omitempty" yaml:"max_parallel,omitempty"`
	ParallelGroups [][]string    `json:"parallel_groups,omitempty" yaml:"parallel_groups,omitempty"`
	RunBudget      time.Duration `json:"run_budget,omitempty" yaml:"run_budget,omitempty"`
}

// Normalize folds edge sources into their target's dependency list so
// scheduling only has to consult dependencies.
func (g *Graph) Normalize() {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		have := make(map[string]bool, len(n.Dependencies))
		for _, dep := range n.Dependencies {
			have[dep] = true
		}
		for _, e := range g.Edges {
			if e.To == n.ID && !have[e.From] {
				n.Dependencies = append(n.Dependencies, e.From)
				have[e.From] = true
			}
		}
	}
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// IncomingEdges returns every edge targeting the given node, in
// declaration order.
func (g *Graph) IncomingEdges(to string) []Edge {
	var edges []Edge
	for _, e := range g.Edges {
		if e.To == to {
			edges = append(edges, e)
		}
	}
	return edges
}

// Dependents returns the IDs of nodes that depend on the given node.
func (g *Graph) Dependents(id string) []string {
	var out []string
	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			if dep == id {
				out = append(out, n.ID)
				break
			}
		}
	}
	return out
}
