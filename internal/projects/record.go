package projects

import (
	"time"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
)

// Record is the consolidated multi-document result for one project. It is
// mutated only by the merge path and explicit human field updates, and is
// persisted after every successful merge.
type Record struct {
	ProjectID      string                       `json:"project_id"`
	ExtractionTime time.Time                    `json:"extraction_time"`
	Documents      []string                     `json:"documents"`
	DocumentFields []merge.DocumentFields       `json:"document_fields"`
	Fields         map[fields.Name]fields.Field `json:"fields"`
	Summary        merge.ExtractionSummary      `json:"extraction_summary"`
}

// NewRecord creates an empty record for a project.
func NewRecord(projectID string) Record {
	return Record{
		ProjectID:      projectID,
		ExtractionTime: time.Now().UTC(),
		Documents:      []string{},
		DocumentFields: []merge.DocumentFields{},
		Fields:         map[fields.Name]fields.Field{},
		Summary:        merge.Summarize(nil),
	}
}

// attach upserts per-document extractor output, preserving attachment
// order for documents already present.
func (r *Record) attach(incoming []merge.DocumentFields) {
	for _, doc := range incoming {
		replaced := false
		for i, existing := range r.DocumentFields {
			if existing.DocumentID == doc.DocumentID {
				r.DocumentFields[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			r.DocumentFields = append(r.DocumentFields, doc)
			r.Documents = append(r.Documents, doc.DocumentID)
		}
	}
}

// remerge recomputes the consolidated fields and summary from the
// attached document outputs.
func (r *Record) remerge() {
	r.Fields = merge.Merge(r.DocumentFields)
	r.Summary = merge.Summarize(r.Fields)
	r.ExtractionTime = time.Now().UTC()
}
