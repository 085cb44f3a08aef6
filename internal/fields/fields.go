// Package fields defines the extraction field model: a typed value with
// confidence, provenance, and review state.
package fields

import (
	"github.com/lehen20/dpr-auto/internal/segments"
)

// BoostStep is the confidence increase applied when a human confirms or
// corrects a field value.
const BoostStep = 0.1

// Field is a single extracted value with its confidence and provenance.
// A Field is created by exactly one extractor call; afterwards it changes
// only through human edits or merge-time arbitration, both of which
// produce new values rather than mutating in place.
type Field struct {
	Value       Value                `json:"value"`
	Confidence  float64              `json:"confidence"`
	SourceRefs  []segments.SourceRef `json:"source_refs"`
	RawText     string               `json:"raw_text,omitempty"`
	NeedsReview bool                 `json:"needs_review"`
}

// New creates a field with the given value, confidence, and provenance.
func New(value Value, confidence float64, refs ...segments.SourceRef) Field {
	return Field{
		Value:      value,
		Confidence: confidence,
		SourceRefs: refs,
	}
}

// Boost returns a copy with the human-edit confidence rule applied:
// confidence raised by BoostStep capped at 1.0, needs_review cleared.
func (f Field) Boost() Field {
	f.Confidence = min(f.Confidence+BoostStep, 1.0)
	f.NeedsReview = false
	return f
}

// WithValue returns a copy holding the replacement value.
func (f Field) WithValue(v Value) Field {
	f.Value = v
	return f
}

// Clone returns a deep copy; the source-ref slice is not shared.
func (f Field) Clone() Field {
	refs := make([]segments.SourceRef, len(f.SourceRefs))
	copy(refs, f.SourceRefs)
	f.SourceRefs = refs
	return f
}
