// Package extract holds the per-field extractors: pure functions mapping a
// document's segments to at most one typed field each, with fixed
// confidence tiers and provenance.
package extract

import (
	"log/slog"

	"github.com/lehen20/dpr-auto/internal/classify"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/segments"
)

// Extractor maps segments to zero or one field for a single logical name.
type Extractor func(segs []segments.Segment, docID string) (fields.Field, bool)

var certificateExtractors = map[fields.Name]Extractor{
	fields.EntityName:         CompanyName,
	fields.RegistrationNumber: CIN,
	fields.CompanyType:        CompanyType,
	fields.DateOfFormation:    FormationDate,
	fields.RegisteredOffice:   RegisteredOffice,
}

var memorandumExtractors = map[fields.Name]Extractor{
	fields.AuthorizedCapital: AuthorizedCapital,
	fields.MainObjectivesRaw: MainObjectives,
}

// tableExtractors work on table-category segments and are independent of
// the pattern-based registries above.
var tableExtractors = map[fields.Name]Extractor{
	fields.BoardList:            BoardList,
	fields.ShareholdingSchedule: ShareholdingSchedule,
}

// RegexFields runs the pattern-based extractors registered for the
// document type and collects the fields that matched. A panic inside one
// extractor omits only that extractor's field; sibling fields are
// unaffected. Unknown document types yield nothing.
func RegexFields(logger *slog.Logger, docType classify.DocType, segs []segments.Segment, docID string) map[fields.Name]fields.Field {
	out := make(map[fields.Name]fields.Field)

	var registry map[fields.Name]Extractor
	switch docType {
	case classify.TypeCertificateOfIncorporation:
		registry = certificateExtractors
	case classify.TypeMoAAoA:
		registry = memorandumExtractors
	default:
		return out
	}

	for name, extractor := range registry {
		if f, ok := runExtractor(logger, name, extractor, segs, docID); ok {
			out[name] = f
		}
	}

	if docType == classify.TypeMoAAoA {
		if raw, ok := out[fields.MainObjectivesRaw]; ok {
			out[fields.MainObjectivesSummary] = SummarizeObjectives(raw)
		}
		out[fields.MoAAoAPresent] = MemorandumPresent(docID)
	}

	return out
}

// TableFields runs the table-driven extractors over the document's
// segments with the same panic isolation as RegexFields.
func TableFields(logger *slog.Logger, segs []segments.Segment, docID string) map[fields.Name]fields.Field {
	out := make(map[fields.Name]fields.Field)
	for name, extractor := range tableExtractors {
		if f, ok := runExtractor(logger, name, extractor, segs, docID); ok {
			out[name] = f
		}
	}
	return out
}

// ExtractAll runs both the pattern-based and table-driven extractors.
func ExtractAll(logger *slog.Logger, docType classify.DocType, segs []segments.Segment, docID string) map[fields.Name]fields.Field {
	out := RegexFields(logger, docType, segs, docID)
	if docType == classify.TypeMoAAoA {
		for name, f := range TableFields(logger, segs, docID) {
			out[name] = f
		}
	}
	return out
}

// runExtractor is the panic boundary around a single field's extraction.
func runExtractor(logger *slog.Logger, name fields.Name, extractor Extractor, segs []segments.Segment, docID string) (f fields.Field, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extractor panicked, omitting field", "field", string(name), "document", docID, "panic", r)
			f, ok = fields.Field{}, false
		}
	}()
	return extractor(segs, docID)
}
