package workflow

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Wire types for YAML graph definitions. Durations are Go duration
// strings ("2s", "24h") so definitions stay readable.

type graphSpec struct {
	ID             string     `yaml:"id"`
	Name           string     `yaml:"name"`
	MaxParallel    int        `yaml:"max_parallel"`
	RunBudget      string     `yaml:"run_budget"`
	ParallelGroups [][]string `yaml:"parallel_groups"`
	Nodes          []nodeSpec `yaml:"nodes"`
	Edges          []edgeSpec `yaml:"edges"`
}

type nodeSpec struct {
	ID          string     `yaml:"id"`
	Kind        string     `yaml:"kind"`
	DependsOn   []string   `yaml:"depends_on"`
	Timeout     string     `yaml:"timeout"`
	Condition   string     `yaml:"condition"`
	SkipIfFalse bool       `yaml:"skip_if_false"`
	Critical    bool       `yaml:"critical"`
	Checkpoint  bool       `yaml:"checkpoint"`
	Retry       *retrySpec `yaml:"retry"`
	Cache       *cacheSpec `yaml:"cache"`
}

type retrySpec struct {
	MaxRetries int      `yaml:"max_retries"`
	Backoff    string   `yaml:"backoff"`
	Delay      string   `yaml:"delay"`
	MaxDelay   string   `yaml:"max_delay"`
	Multiplier float64  `yaml:"multiplier"`
	RetryOn    []string `yaml:"retry_on"`
}

type cacheSpec struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	TTL     string `yaml:"ttl"`
}

type edgeSpec struct {
	From      string            `yaml:"from"`
	To        string            `yaml:"to"`
	Condition string            `yaml:"condition"`
	Mapping   map[string]string `yaml:"mapping"`
}

// LoadGraph reads a YAML graph definition from a file.
func LoadGraph(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graph definition: %w", err)
	}
	defer f.Close()
	return ParseGraph(f)
}

// ParseGraph decodes a YAML graph definition. It collects every
// malformed field into a single ConfigError instead of stopping at the
// first.
func ParseGraph(r io.Reader) (*Graph, error) {
	var spec graphSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decoding graph definition: %w", err)
	}

	var issues []string
	parseDur := func(field, value string) time.Duration {
		if value == "" {
			return 0
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid duration %q", field, value))
			return 0
		}
		return d
	}

	g := &Graph{
		ID:             spec.ID,
		Name:           spec.Name,
		MaxParallel:    spec.MaxParallel,
		RunBudget:      parseDur("run_budget", spec.RunBudget),
		ParallelGroups: spec.ParallelGroups,
	}
	if g.ID == "" {
		issues = append(issues, "graph id is required")
	}

	for _, ns := range spec.Nodes {
		node := Node{
			ID:           ns.ID,
			Kind:         ns.Kind,
			Dependencies: ns.DependsOn,
			Timeout:      parseDur(ns.ID+".timeout", ns.Timeout),
			Condition:    ns.Condition,
			SkipIfFalse:  ns.SkipIfFalse,
			Critical:     ns.Critical,
			Checkpoint:   ns.Checkpoint,
		}
		if ns.Kind == "" {
			issues = append(issues, fmt.Sprintf("node %s: kind is required", ns.ID))
		}
		if ns.Retry != nil {
			node.Retry = RetryPolicy{
				MaxRetries: ns.Retry.MaxRetries,
				Backoff:    BackoffStrategy(ns.Retry.Backoff),
				Delay:      parseDur(ns.ID+".retry.delay", ns.Retry.Delay),
				MaxDelay:   parseDur(ns.ID+".retry.max_delay", ns.Retry.MaxDelay),
				Multiplier: ns.Retry.Multiplier,
			}
			for _, kind := range ns.Retry.RetryOn {
				node.Retry.RetryOn = append(node.Retry.RetryOn, ErrorKind(kind))
			}
			switch node.Retry.Backoff {
			case "", BackoffConstant, BackoffLinear, BackoffExponential:
			default:
				issues = append(issues, fmt.Sprintf("node %s: unknown backoff strategy %q", ns.ID, ns.Retry.Backoff))
			}
		}
		if ns.Cache != nil {
			node.Cache = CachePolicy{
				Enabled: ns.Cache.Enabled,
				Key:     CacheKeyKind(ns.Cache.Key),
				TTL:     parseDur(ns.ID+".cache.ttl", ns.Cache.TTL),
			}
			switch node.Cache.Key {
			case "", CacheKeyInputs, CacheKeyFile:
			default:
				issues = append(issues, fmt.Sprintf("node %s: unknown cache key kind %q", ns.ID, ns.Cache.Key))
			}
			if node.Cache.Enabled && node.Cache.TTL <= 0 {
				issues = append(issues, fmt.Sprintf("node %s: cache enabled without a positive ttl", ns.ID))
			}
		}
		g.Nodes = append(g.Nodes, node)
	}

	for _, es := range spec.Edges {
		g.Edges = append(g.Edges, Edge{
			From:      es.From,
			To:        es.To,
			Condition: es.Condition,
			Mapping:   es.Mapping,
		})
	}

	if len(issues) > 0 {
		return nil, &ConfigError{Issues: issues}
	}
	return g, nil
}
