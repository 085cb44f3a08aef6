package api

import (
	"fmt"

	"github.com/lehen20/dpr-auto/internal/documents"
	"github.com/lehen20/dpr-auto/internal/pipeline"
	"github.com/lehen20/dpr-auto/internal/projects"
	"github.com/lehen20/dpr-auto/internal/segments"
	"github.com/lehen20/dpr-auto/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Projects  projects.System
	Pipeline  pipeline.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	docsSystem := documents.New(
		runtime.Store,
		runtime.Logger,
		runtime.Pagination,
	)

	projectsSystem := projects.New(
		runtime.Store,
		runtime.Enricher,
		runtime.Logger,
		runtime.Pagination,
	)

	graph, err := loadGraph(runtime)
	if err != nil {
		return nil, err
	}

	provider := segments.Chain{segments.NewPDFProvider(runtime.Logger)}
	pipelineRuntime := pipeline.NewRuntime(
		runtime.Logger,
		provider,
		runtime.Enricher,
		projectsSystem,
		docsSystem,
	)

	pipelineSystem := pipeline.New(
		runtime.Store,
		docsSystem,
		pipelineRuntime,
		graph,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Documents: docsSystem,
		Projects:  projectsSystem,
		Pipeline:  pipelineSystem,
	}, nil
}

// loadGraph resolves the workflow definition: a configured YAML file
// when present, otherwise the built-in extraction graph. Config-level
// parallelism and budget settings override the graph's own.
func loadGraph(runtime *Runtime) (*workflow.Graph, error) {
	graph := pipeline.DefaultGraph()
	if runtime.Pipeline.GraphPath != "" {
		loaded, err := workflow.LoadGraph(runtime.Pipeline.GraphPath)
		if err != nil {
			return nil, fmt.Errorf("load workflow graph: %w", err)
		}
		graph = loaded
	}

	if runtime.Pipeline.MaxParallel > 0 {
		graph.MaxParallel = runtime.Pipeline.MaxParallel
	}
	if budget := runtime.Pipeline.RunBudgetDuration(); budget > 0 {
		graph.RunBudget = budget
	}
	return graph, nil
}
