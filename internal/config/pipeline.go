package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineGraphPath   = "DPR_PIPELINE_GRAPH_PATH"
	EnvPipelineMaxParallel = "DPR_PIPELINE_MAX_PARALLEL"
	EnvPipelineRunBudget   = "DPR_PIPELINE_RUN_BUDGET"
)

// PipelineConfig holds workflow execution settings. GraphPath optionally
// points at a YAML graph definition replacing the built-in one;
// MaxParallel and RunBudget override the graph's own values when set.
type PipelineConfig struct {
	GraphPath   string `toml:"graph_path"`
	MaxParallel int    `toml:"max_parallel"`
	RunBudget   string `toml:"run_budget"`
}

// RunBudgetDuration returns RunBudget as a time.Duration, zero when unset.
func (c *PipelineConfig) RunBudgetDuration() time.Duration {
	d, _ := time.ParseDuration(c.RunBudget)
	return d
}

// Finalize applies environment variable overrides and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.GraphPath != "" {
		c.GraphPath = overlay.GraphPath
	}
	if overlay.MaxParallel != 0 {
		c.MaxParallel = overlay.MaxParallel
	}
	if overlay.RunBudget != "" {
		c.RunBudget = overlay.RunBudget
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineGraphPath); v != "" {
		c.GraphPath = v
	}
	if v := os.Getenv(EnvPipelineMaxParallel); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxParallel = n
		}
	}
	if v := os.Getenv(EnvPipelineRunBudget); v != "" {
		c.RunBudget = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.MaxParallel < 0 {
		return fmt.Errorf("invalid max_parallel: %d", c.MaxParallel)
	}
	if c.RunBudget != "" {
		if _, err := time.ParseDuration(c.RunBudget); err != nil {
			return fmt.Errorf("invalid run_budget: %w", err)
		}
	}
	return nil
}
