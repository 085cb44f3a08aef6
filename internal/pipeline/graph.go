package pipeline

import (
	"time"

	"github.com/lehen20/dpr-auto/internal/workflow"
)

// GraphID identifies the standard extraction graph.
const GraphID = "dpr_extraction"

// DefaultGraph builds the standard extraction workflow:
//
//	ocr_layout -> doc_classifier -> {table_extractor, regex_field_extractor}
//	           -> llm_summarizer -> merger -> validator -> store
//
// Segmentation and final persistence are critical; everything between
// them degrades to a partial result.
func DefaultGraph() *workflow.Graph {
	return &workflow.Graph{
		ID:          GraphID,
		Name:        "Document extraction and consolidation",
		MaxParallel: 3,
		RunBudget:   30 * time.Minute,
		ParallelGroups: [][]string{
			{"table_extractor", "regex_field_extractor"},
		},
		Nodes: []workflow.Node{
			{
				ID:       "ocr_layout",
				Kind:     KindSegment,
				Critical: true,
				Timeout:  120 * time.Second,
				Retry: workflow.RetryPolicy{
					MaxRetries: 3,
					Backoff:    workflow.BackoffConstant,
					Delay:      2 * time.Second,
				},
				Cache: workflow.CachePolicy{
					Enabled: true,
					Key:     workflow.CacheKeyFile,
					TTL:     24 * time.Hour,
				},
			},
			{
				ID:           "doc_classifier",
				Kind:         KindClassify,
				Dependencies: []string{"ocr_layout"},
				Timeout:      30 * time.Second,
				Retry: workflow.RetryPolicy{
					MaxRetries: 2,
					Backoff:    workflow.BackoffConstant,
					Delay:      time.Second,
				},
				Cache: workflow.CachePolicy{
					Enabled: true,
					Key:     workflow.CacheKeyInputs,
					TTL:     12 * time.Hour,
				},
			},
			{
				ID:           "table_extractor",
				Kind:         KindTables,
				Dependencies: []string{"doc_classifier"},
				Timeout:      45 * time.Second,
				Condition:    "doc_type_in:moa_aoa",
				SkipIfFalse:  true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 2,
					Backoff:    workflow.BackoffConstant,
					Delay:      time.Second,
				},
			},
			{
				ID:           "regex_field_extractor",
				Kind:         KindRegex,
				Dependencies: []string{"doc_classifier"},
				Timeout:      60 * time.Second,
				Condition:    "doc_type_known",
				SkipIfFalse:  true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 1,
					Backoff:    workflow.BackoffConstant,
					Delay:      time.Second,
				},
				Cache: workflow.CachePolicy{
					Enabled: true,
					Key:     workflow.CacheKeyInputs,
					TTL:     6 * time.Hour,
				},
			},
			{
				ID:           "llm_summarizer",
				Kind:         KindEnrich,
				Dependencies: []string{"table_extractor", "regex_field_extractor"},
				Timeout:      90 * time.Second,
				Condition:    "low_confidence",
				SkipIfFalse:  true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 3,
					Backoff:    workflow.BackoffExponential,
					Delay:      5 * time.Second,
				},
				Cache: workflow.CachePolicy{
					Enabled: true,
					Key:     workflow.CacheKeyInputs,
					TTL:     48 * time.Hour,
				},
			},
			{
				// doc_classifier is a dependency so an unknown document,
				// with both extractors skipped, still merges into an
				// empty record the validator can flag.
				ID:           "merger",
				Kind:         KindMerge,
				Dependencies: []string{"doc_classifier", "table_extractor", "regex_field_extractor", "llm_summarizer"},
				Timeout:      30 * time.Second,
				Checkpoint:   true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 2,
					Backoff:    workflow.BackoffConstant,
					Delay:      2 * time.Second,
				},
			},
			{
				ID:           "validator",
				Kind:         KindValidate,
				Dependencies: []string{"merger"},
				Timeout:      20 * time.Second,
				Checkpoint:   true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 1,
					Backoff:    workflow.BackoffConstant,
					Delay:      time.Second,
				},
			},
			{
				ID:           "store",
				Kind:         KindPersist,
				Dependencies: []string{"validator"},
				Timeout:      15 * time.Second,
				Critical:     true,
				Retry: workflow.RetryPolicy{
					MaxRetries: 3,
					Backoff:    workflow.BackoffConstant,
					Delay:      2 * time.Second,
				},
			},
		},
	}
}
