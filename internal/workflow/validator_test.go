package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGraph() *Graph {
	return &Graph{
		ID: "g",
		Nodes: []Node{
			{ID: "a", Kind: "k"},
			{ID: "b", Kind: "k", Dependencies: []string{"a"}},
			{ID: "c", Kind: "k", Dependencies: []string{"a", "b"}},
		},
	}
}

func issuesOf(t *testing.T, err error) []string {
	t.Helper()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	return cfgErr.Issues
}

func TestValidate(t *testing.T) {
	v := NewValidator(NewRegistry())

	t.Run("valid graph passes", func(t *testing.T) {
		require.NoError(t, v.Validate(validGraph()))
	})

	t.Run("empty node id", func(t *testing.T) {
		g := validGraph()
		g.Nodes = append(g.Nodes, Node{Kind: "k"})
		assert.Contains(t, issuesOf(t, v.Validate(g)), "node with empty id")
	})

	t.Run("duplicate node id", func(t *testing.T) {
		g := validGraph()
		g.Nodes = append(g.Nodes, Node{ID: "a", Kind: "k"})
		assert.Contains(t, issuesOf(t, v.Validate(g)), "duplicate node id: a")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		g := validGraph()
		g.Nodes[1].Dependencies = []string{"missing"}
		assert.Contains(t, issuesOf(t, v.Validate(g)), "node b depends on unknown node: missing")
	})

	t.Run("self dependency", func(t *testing.T) {
		g := validGraph()
		g.Nodes[0].Dependencies = []string{"a"}
		issues := issuesOf(t, v.Validate(g))
		assert.Contains(t, issues, "node a depends on itself")
	})

	t.Run("unknown node condition", func(t *testing.T) {
		g := validGraph()
		g.Nodes[2].Condition = "doc_type_known"
		assert.Contains(t, issuesOf(t, v.Validate(g)), "node c uses unknown condition: doc_type_known")
	})

	t.Run("registered condition accepted", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register("doc_type_known", func(string, map[string]any) bool { return true })
		g := validGraph()
		g.Nodes[2].Condition = "doc_type_known"
		require.NoError(t, NewValidator(reg).Validate(g))
	})

	t.Run("negative max retries", func(t *testing.T) {
		g := validGraph()
		g.Nodes[0].Retry.MaxRetries = -1
		assert.Contains(t, issuesOf(t, v.Validate(g)), "node a has negative max_retries")
	})

	t.Run("dangling edge endpoints", func(t *testing.T) {
		g := validGraph()
		g.Edges = []Edge{{From: "ghost", To: "phantom"}}
		issues := issuesOf(t, v.Validate(g))
		assert.Contains(t, issues, "edge references unknown source node: ghost")
		assert.Contains(t, issues, "edge references unknown target node: phantom")
	})

	t.Run("bad parallel group member", func(t *testing.T) {
		g := validGraph()
		g.ParallelGroups = [][]string{{"a", "ghost"}}
		assert.Contains(t, issuesOf(t, v.Validate(g)), "parallel group references unknown node: ghost")
	})

	t.Run("cycle detected", func(t *testing.T) {
		g := validGraph()
		g.Nodes[0].Dependencies = []string{"c"}
		issues := issuesOf(t, v.Validate(g))
		require.NotEmpty(t, issues)
		assert.Contains(t, issues[len(issues)-1], "cycle detected")
	})

	t.Run("all issues collected", func(t *testing.T) {
		g := validGraph()
		g.Nodes[0].Retry.MaxRetries = -1
		g.Nodes[1].Dependencies = []string{"missing"}
		g.Edges = []Edge{{From: "ghost", To: "a"}}
		issues := issuesOf(t, v.Validate(g))
		assert.GreaterOrEqual(t, len(issues), 3)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("respects dependencies", func(t *testing.T) {
		order, err := TopologicalOrder(validGraph())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("sorted frontier is deterministic", func(t *testing.T) {
		g := &Graph{
			ID: "g",
			Nodes: []Node{
				{ID: "root", Kind: "k"},
				{ID: "zeta", Kind: "k", Dependencies: []string{"root"}},
				{ID: "alpha", Kind: "k", Dependencies: []string{"root"}},
				{ID: "sink", Kind: "k", Dependencies: []string{"zeta", "alpha"}},
			},
		}
		for range 5 {
			order, err := TopologicalOrder(g)
			require.NoError(t, err)
			assert.Equal(t, []string{"root", "alpha", "zeta", "sink"}, order)
		}
	})

	t.Run("cycle yields no partial order", func(t *testing.T) {
		g := validGraph()
		g.Nodes[0].Dependencies = []string{"c"}
		order, err := TopologicalOrder(g)
		require.Error(t, err)
		assert.Nil(t, order)

		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})
}
