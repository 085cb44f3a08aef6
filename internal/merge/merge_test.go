package merge_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
	"github.com/lehen20/dpr-auto/internal/segments"
)

func docFields(docID string, name fields.Name, value string, confidence float64) merge.DocumentFields {
	ref := segments.NewSourceRef(docID, 1, segments.CategoryParagraph, value)
	return merge.DocumentFields{
		DocumentID: docID,
		Fields: map[fields.Name]fields.Field{
			name: fields.New(fields.String(value), confidence, ref),
		},
	}
}

func TestMerge(t *testing.T) {
	t.Run("highest confidence wins", func(t *testing.T) {
		merged := merge.Merge([]merge.DocumentFields{
			docFields("doc-a", fields.EntityName, "Acme Ltd", 0.8),
			docFields("doc-b", fields.EntityName, "Acme Limited", 0.95),
		})

		got, _ := merged[fields.EntityName].Value.AsString()
		if got != "Acme Limited" {
			t.Errorf("merged name = %q, want %q", got, "Acme Limited")
		}
	})

	t.Run("equal confidence keeps earliest attached", func(t *testing.T) {
		merged := merge.Merge([]merge.DocumentFields{
			docFields("doc-a", fields.EntityName, "Acme Ltd", 0.9),
			docFields("doc-b", fields.EntityName, "Acme Limited", 0.9),
		})

		got, _ := merged[fields.EntityName].Value.AsString()
		if got != "Acme Ltd" {
			t.Errorf("merged name = %q, want %q", got, "Acme Ltd")
		}
	})

	t.Run("provenance unioned across documents", func(t *testing.T) {
		merged := merge.Merge([]merge.DocumentFields{
			docFields("doc-a", fields.EntityName, "Acme Ltd", 0.8),
			docFields("doc-b", fields.EntityName, "Acme Limited", 0.95),
		})

		refs := merged[fields.EntityName].SourceRefs
		if len(refs) != 2 {
			t.Fatalf("got %d source refs, want 2", len(refs))
		}
		// Winner's own refs lead, loser's refs follow.
		if refs[0].DocumentID != "doc-b" || refs[1].DocumentID != "doc-a" {
			t.Errorf("ref order = [%s, %s], want [doc-b, doc-a]", refs[0].DocumentID, refs[1].DocumentID)
		}
	})

	t.Run("duplicate refs appear once", func(t *testing.T) {
		ref := segments.NewSourceRef("doc-a", 1, segments.CategoryParagraph, "Acme Ltd")
		a := merge.DocumentFields{
			DocumentID: "doc-a",
			Fields: map[fields.Name]fields.Field{
				fields.EntityName: fields.New(fields.String("Acme Ltd"), 0.8, ref),
			},
		}
		b := merge.DocumentFields{
			DocumentID: "doc-b",
			Fields: map[fields.Name]fields.Field{
				fields.EntityName: fields.New(fields.String("Acme Ltd"), 0.9, ref),
			},
		}

		merged := merge.Merge([]merge.DocumentFields{a, b})
		if got := len(merged[fields.EntityName].SourceRefs); got != 1 {
			t.Errorf("got %d source refs, want 1", got)
		}
	})

	t.Run("inputs not mutated", func(t *testing.T) {
		a := docFields("doc-a", fields.EntityName, "Acme Ltd", 0.8)
		b := docFields("doc-b", fields.EntityName, "Acme Limited", 0.95)

		merge.Merge([]merge.DocumentFields{a, b})

		if got := len(a.Fields[fields.EntityName].SourceRefs); got != 1 {
			t.Errorf("first input grew to %d refs", got)
		}
		if got := len(b.Fields[fields.EntityName].SourceRefs); got != 1 {
			t.Errorf("second input grew to %d refs", got)
		}
	})

	t.Run("disjoint fields all survive", func(t *testing.T) {
		merged := merge.Merge([]merge.DocumentFields{
			docFields("doc-a", fields.EntityName, "Acme Ltd", 0.9),
			docFields("doc-b", fields.RegistrationNumber, "U12345MH2021PTC000001", 0.95),
		})
		if len(merged) != 2 {
			t.Errorf("got %d fields, want 2", len(merged))
		}
	})
}

// Merging the same documents twice must not change the outcome.
func TestMergeIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var docs []merge.DocumentFields
		n := rapid.IntRange(1, 4).Draw(t, "docs")
		for i := range n {
			docs = append(docs, docFields(
				fmt.Sprintf("doc-%d", i),
				fields.EntityName,
				rapid.StringMatching(`[A-Z][a-z]{2,8}`).Draw(t, fmt.Sprintf("name%d", i)),
				rapid.Float64Range(0, 1).Draw(t, fmt.Sprintf("conf%d", i)),
			))
		}

		first := merge.Merge(docs)
		second := merge.Merge(docs)

		f1, f2 := first[fields.EntityName], second[fields.EntityName]
		if !f1.Value.Equal(f2.Value) || f1.Confidence != f2.Confidence {
			t.Fatalf("merge not deterministic: %v vs %v", f1, f2)
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Run("counts non-null fields", func(t *testing.T) {
		merged := map[fields.Name]fields.Field{
			fields.EntityName:      fields.New(fields.String("Acme Ltd"), 0.9),
			fields.DateOfFormation: fields.New(fields.Null(), 0.9),
		}
		s := merge.Summarize(merged)
		if s.FieldsExtracted != 1 {
			t.Errorf("FieldsExtracted = %d, want 1", s.FieldsExtracted)
		}
	})

	t.Run("reports missing mandatory fields", func(t *testing.T) {
		merged := map[fields.Name]fields.Field{
			fields.EntityName: fields.New(fields.String("Acme Ltd"), 0.9),
		}
		s := merge.Summarize(merged)
		want := []string{"registration_number", "company_type"}
		if len(s.FieldsMissing) != len(want) {
			t.Fatalf("FieldsMissing = %v, want %v", s.FieldsMissing, want)
		}
		for i, name := range want {
			if s.FieldsMissing[i] != name {
				t.Errorf("FieldsMissing[%d] = %q, want %q", i, s.FieldsMissing[i], name)
			}
		}
	})

	t.Run("warns on low confidence", func(t *testing.T) {
		merged := map[fields.Name]fields.Field{
			fields.EntityName:  fields.New(fields.String("Acme Ltd"), 0.7),
			fields.CompanyType: fields.New(fields.String("Private Limited"), 0.9),
		}
		s := merge.Summarize(merged)
		if len(s.ValidationWarnings) != 1 {
			t.Fatalf("ValidationWarnings = %v, want one entry", s.ValidationWarnings)
		}
		if s.ValidationWarnings[0] != "Field name has low confidence" {
			t.Errorf("warning = %q", s.ValidationWarnings[0])
		}
	})

	t.Run("empty merge yields empty summary", func(t *testing.T) {
		s := merge.Summarize(nil)
		if s.FieldsExtracted != 0 || len(s.ValidationWarnings) != 0 {
			t.Errorf("unexpected summary %+v", s)
		}
		if len(s.FieldsMissing) != len(fields.Mandatory) {
			t.Errorf("FieldsMissing = %v, want all mandatory fields", s.FieldsMissing)
		}
	})
}
