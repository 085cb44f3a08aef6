package workflow

import (
	"fmt"
	"sort"
)

// Validator checks a graph definition before any run starts. It collects
// every issue it finds instead of stopping at the first one.
type Validator struct {
	conditions *Registry
}

// NewValidator creates a validator using the given condition registry.
func NewValidator(conditions *Registry) *Validator {
	return &Validator{conditions: conditions}
}

// Validate returns a ConfigError listing every structural problem in the
// graph, or nil when the graph is well formed.
func (v *Validator) Validate(g *Graph) error {
	var issues []string

	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			issues = append(issues, "node with empty id")
			continue
		}
		if ids[n.ID] {
			issues = append(issues, fmt.Sprintf("duplicate node id: %s", n.ID))
		}
		ids[n.ID] = true
	}

	for _, n := range g.Nodes {
		for _, dep := range n.Dependencies {
			if !ids[dep] {
				issues = append(issues, fmt.Sprintf("node %s depends on unknown node: %s", n.ID, dep))
			}
			if dep == n.ID {
				issues = append(issues, fmt.Sprintf("node %s depends on itself", n.ID))
			}
		}
		if n.Condition != "" && !v.conditions.Has(n.Condition) {
			issues = append(issues, fmt.Sprintf("node %s uses unknown condition: %s", n.ID, n.Condition))
		}
		if n.Retry.MaxRetries < 0 {
			issues = append(issues, fmt.Sprintf("node %s has negative max_retries", n.ID))
		}
	}

	for _, e := range g.Edges {
		if !ids[e.From] {
			issues = append(issues, fmt.Sprintf("edge references unknown source node: %s", e.From))
		}
		if !ids[e.To] {
			issues = append(issues, fmt.Sprintf("edge references unknown target node: %s", e.To))
		}
		if e.Condition != "" && !v.conditions.Has(e.Condition) {
			issues = append(issues, fmt.Sprintf("edge %s -> %s uses unknown condition: %s", e.From, e.To, e.Condition))
		}
	}

	for _, group := range g.ParallelGroups {
		for _, id := range group {
			if !ids[id] {
				issues = append(issues, fmt.Sprintf("parallel group references unknown node: %s", id))
			}
		}
	}

	issues = append(issues, detectCycles(g)...)

	if len(issues) > 0 {
		return &ConfigError{Issues: issues}
	}
	return nil
}

// node colors for cycle detection.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // fully explored
)

func detectCycles(g *Graph) []string {
	colors := make(map[string]int, len(g.Nodes))
	var issues []string

	var visit func(id string, path []string)
	visit = func(id string, path []string) {
		colors[id] = gray
		path = append(path, id)
		for _, dep := range nodeDeps(g, id) {
			switch colors[dep] {
			case white:
				visit(dep, path)
			case gray:
				issues = append(issues, fmt.Sprintf("cycle detected: %s -> %s", id, dep))
			}
		}
		colors[id] = black
	}

	sorted := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		sorted = append(sorted, n.ID)
	}
	sort.Strings(sorted)

	for _, id := range sorted {
		if colors[id] == white {
			visit(id, nil)
		}
	}
	return issues
}

func nodeDeps(g *Graph, id string) []string {
	if n, ok := g.Node(id); ok {
		return n.Dependencies
	}
	return nil
}

// TopologicalOrder returns a deterministic topological ordering of the
// graph using Kahn's algorithm with a lexicographically sorted frontier.
// It fails when the graph contains a cycle; no partial order is returned.
func TopologicalOrder(g *Graph) ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n.ID] = len(n.Dependencies)
	}

	var frontier []string
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(g.Nodes))
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		order = append(order, id)

		var released []string
		for _, dependent := range g.Dependents(id) {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				released = append(released, dependent)
			}
		}
		sort.Strings(released)
		frontier = mergeSorted(frontier, released)
	}

	if len(order) != len(g.Nodes) {
		return nil, &ConfigError{Issues: []string{"graph contains a cycle"}}
	}
	return order, nil
}

func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
