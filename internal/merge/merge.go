// Package merge consolidates per-document field maps into one record,
// resolving conflicts by confidence and unioning provenance.
package merge

import (
	"fmt"
	"sort"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/segments"
)

// DocumentFields pairs a document with its extractor output. Order in the
// merge input reflects attachment order, which decides confidence ties.
type DocumentFields struct {
	DocumentID string                       `json:"document_id"`
	Fields     map[fields.Name]fields.Field `json:"fields"`
}

// Merge combines the field maps of every attached document. For each
// logical name the highest-confidence candidate survives; equal confidence
// falls to the earliest-attached document. Values are never averaged or
// blended. Provenance from every contributing document is unioned into the
// survivor. Inputs are not modified; the result holds fresh fields.
func Merge(docs []DocumentFields) map[fields.Name]fields.Field {
	out := make(map[fields.Name]fields.Field)

	for _, doc := range docs {
		for name, candidate := range doc.Fields {
			current, seen := out[name]
			if !seen {
				out[name] = candidate.Clone()
				continue
			}
			if candidate.Confidence > current.Confidence {
				winner := candidate.Clone()
				winner.SourceRefs = unionRefs(winner.SourceRefs, current.SourceRefs)
				out[name] = winner
			} else {
				current.SourceRefs = unionRefs(current.SourceRefs, candidate.SourceRefs)
				out[name] = current
			}
		}
	}

	return out
}

// unionRefs appends refs not already present, preserving first-seen order.
func unionRefs(base, extra []segments.SourceRef) []segments.SourceRef {
	for _, ref := range extra {
		found := false
		for _, existing := range base {
			if existing == ref {
				found = true
				break
			}
		}
		if !found {
			base = append(base, ref)
		}
	}
	return base
}

// LowConfidenceFloor marks merged fields that warrant review.
const LowConfidenceFloor = 0.85

// ExtractionSummary is the derived overview recomputed on every merge.
type ExtractionSummary struct {
	FieldsExtracted    int      `json:"fields_extracted"`
	FieldsMissing      []string `json:"fields_missing"`
	ValidationWarnings []string `json:"validation_warnings"`
}

// Summarize recomputes the extraction summary for a merged field set:
// non-null field count, absent mandatory fields, and one warning per field
// below the confidence floor. Output ordering is deterministic.
func Summarize(merged map[fields.Name]fields.Field) ExtractionSummary {
	summary := ExtractionSummary{
		FieldsMissing:      []string{},
		ValidationWarnings: []string{},
	}

	for _, f := range merged {
		if !f.Value.IsNull() {
			summary.FieldsExtracted++
		}
	}

	for _, name := range fields.Mandatory {
		f, ok := merged[name]
		if !ok || f.Value.IsNull() {
			summary.FieldsMissing = append(summary.FieldsMissing, string(name))
		}
	}

	for name, f := range merged {
		if f.Confidence < LowConfidenceFloor {
			summary.ValidationWarnings = append(summary.ValidationWarnings,
				fmt.Sprintf("Field %s has low confidence", name))
		}
	}
	sort.Strings(summary.ValidationWarnings)

	return summary
}
