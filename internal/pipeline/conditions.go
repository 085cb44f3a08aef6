package pipeline

import (
	"strings"

	"github.com/lehen20/dpr-auto/internal/classify"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
	"github.com/lehen20/dpr-auto/internal/workflow"
)

// Input keys shared between runners, edges, and conditions.
const (
	keyDocumentID    = "document_id"
	keyProjectID     = "project_id"
	keyFilePath      = "file_path"
	keySegments      = "segments"
	keyPageCount     = "page_count"
	keyDocType       = "doc_type"
	keyRegexFields   = "regex_fields"
	keyTableFields   = "table_fields"
	keyEnrichedParts = "enriched_fields"
	keyRecord        = "record"
	keySummary       = "summary"
	keyValidation    = "validation"
	keyStatus        = "status"
)

// NewConditions builds the condition registry with the document
// predicates the extraction graph uses on top of the engine's generic
// ones.
func NewConditions() *workflow.Registry {
	r := workflow.NewRegistry()

	// doc_type_known passes once the classifier recognized the document.
	r.Register("doc_type_known", func(_ string, data map[string]any) bool {
		return docType(data).Known()
	})

	// doc_type_in:a,b passes when the classified type is in the list.
	r.Register("doc_type_in", func(args string, data map[string]any) bool {
		dt := docType(data)
		for _, want := range strings.Split(args, ",") {
			if string(dt) == strings.TrimSpace(want) {
				return true
			}
		}
		return false
	})

	// low_confidence gates enrichment: it passes when deterministic
	// extraction produced nothing, left a field under the review floor,
	// or extracted raw objectives without a summary.
	r.Register("low_confidence", func(_ string, data map[string]any) bool {
		extracted := collectFields(data)
		if len(extracted) == 0 {
			return true
		}
		for _, f := range extracted {
			if f.Confidence < merge.LowConfidenceFloor {
				return true
			}
		}
		_, hasRaw := extracted[fields.MainObjectivesRaw]
		_, hasSummary := extracted[fields.MainObjectivesSummary]
		return hasRaw && !hasSummary
	})

	return r
}

func docType(data map[string]any) classify.DocType {
	raw, err := input[string](data, keyDocType)
	if err != nil {
		return classify.TypeUnknown
	}
	return classify.DocType(raw)
}

func collectFields(data map[string]any) map[fields.Name]fields.Field {
	out := make(map[fields.Name]fields.Field)
	for _, key := range []string{keyRegexFields, keyTableFields} {
		m, err := input[map[fields.Name]fields.Field](data, key)
		if err != nil {
			continue
		}
		for name, f := range m {
			out[name] = f
		}
	}
	return out
}
