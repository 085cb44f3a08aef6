package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lehen20/dpr-auto/internal/classify"
	"github.com/lehen20/dpr-auto/internal/documents"
	"github.com/lehen20/dpr-auto/internal/enrich"
	"github.com/lehen20/dpr-auto/internal/extract"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
	"github.com/lehen20/dpr-auto/internal/projects"
	"github.com/lehen20/dpr-auto/internal/segments"
	"github.com/lehen20/dpr-auto/internal/validate"
	"github.com/lehen20/dpr-auto/internal/workflow"
)

// Node kinds the extraction graph is built from.
const (
	KindSegment  = "segment"
	KindClassify = "classify"
	KindTables   = "tables"
	KindRegex    = "regex_extract"
	KindEnrich   = "enrich"
	KindMerge    = "merge"
	KindValidate = "validate"
	KindPersist  = "persist"
)

// Runtime bundles the domain systems the extraction runners operate on.
type Runtime struct {
	logger    *slog.Logger
	provider  segments.Provider
	enricher  *enrich.Adapter
	projects  projects.System
	documents documents.System
}

// NewRuntime creates the runner runtime.
func NewRuntime(logger *slog.Logger, provider segments.Provider, enricher *enrich.Adapter, proj projects.System, docs documents.System) *Runtime {
	return &Runtime{
		logger:    logger.With("system", "pipeline"),
		provider:  provider,
		enricher:  enricher,
		projects:  proj,
		documents: docs,
	}
}

// Runners builds the registry binding each node kind to its runner.
func (rt *Runtime) Runners() *workflow.RunnerRegistry {
	reg := workflow.NewRunnerRegistry()
	reg.Register(KindSegment, workflow.RunnerFunc(rt.runSegment))
	reg.Register(KindClassify, workflow.RunnerFunc(rt.runClassify))
	reg.Register(KindTables, workflow.RunnerFunc(rt.runTables))
	reg.Register(KindRegex, workflow.RunnerFunc(rt.runRegex))
	reg.Register(KindEnrich, workflow.RunnerFunc(rt.runEnrich))
	reg.Register(KindMerge, workflow.RunnerFunc(rt.runMerge))
	reg.Register(KindValidate, workflow.RunnerFunc(rt.runValidate))
	reg.Register(KindPersist, workflow.RunnerFunc(rt.runPersist))
	return reg
}

// ExtractDocument runs the full deterministic extraction for one stored
// file outside the workflow: segment, classify, then every pattern and
// table extractor registered for the classified type.
func (rt *Runtime) ExtractDocument(ctx context.Context, docID, path string) (classify.DocType, map[fields.Name]fields.Field, error) {
	segs, _, err := rt.provider.Segments(ctx, path)
	if err != nil {
		return classify.TypeUnknown, nil, err
	}

	docType := classify.Classify(segs)
	extracted := extract.ExtractAll(rt.logger, docType, segs, docID)
	rt.logger.InfoContext(ctx, "document extracted", "document", docID, "doc_type", docType, "fields", len(extracted))
	return docType, extracted, nil
}

func (rt *Runtime) runSegment(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	path, err := input[string](inputs, keyFilePath)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindIO, KindSegment, err)
	}

	segs, pages, err := rt.provider.Segments(ctx, path)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindIO, KindSegment, err)
	}

	rt.logger.InfoContext(ctx, "document segmented", "segments", len(segs), "pages", pages)
	return map[string]any{
		keySegments:  segs,
		keyPageCount: pages,
	}, nil
}

func (rt *Runtime) runClassify(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	segs, err := input[[]segments.Segment](inputs, keySegments)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindClassification, KindClassify, err)
	}

	docType := classify.Classify(segs)
	rt.logger.InfoContext(ctx, "document classified", "doc_type", docType)
	return map[string]any{keyDocType: string(docType)}, nil
}

func (rt *Runtime) runTables(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	segs, err := input[[]segments.Segment](inputs, keySegments)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindExtraction, KindTables, err)
	}
	docID, err := input[string](inputs, keyDocumentID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindExtraction, KindTables, err)
	}

	extracted := extract.TableFields(rt.logger, segs, docID)
	return map[string]any{keyTableFields: extracted}, nil
}

func (rt *Runtime) runRegex(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	segs, err := input[[]segments.Segment](inputs, keySegments)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindExtraction, KindRegex, err)
	}
	docID, err := input[string](inputs, keyDocumentID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindExtraction, KindRegex, err)
	}

	extracted := extract.RegexFields(rt.logger, docType(inputs), segs, docID)
	rt.logger.InfoContext(ctx, "fields extracted", "document", docID, "fields", len(extracted))
	return map[string]any{keyRegexFields: extracted}, nil
}

// runEnrich fills the gaps deterministic extraction left. With raw
// objectives in hand it re-summarizes the clause; with nothing extracted
// at all it falls back to whole-document bundle extraction. The adapter
// degrades internally, so this runner never fails the graph.
func (rt *Runtime) runEnrich(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	docID, _ := input[string](inputs, keyDocumentID)
	extracted := collectFields(inputs)
	enriched := make(map[fields.Name]fields.Field)

	if raw, ok := extracted[fields.MainObjectivesRaw]; ok {
		clause, _ := raw.Value.AsString()
		summary := rt.enricher.SummarizeClause(ctx, clause)

		f := fields.New(fields.String(summary.Summary), enrichedConfidence, raw.SourceRefs...)
		if summary.Fallback {
			f.Confidence = fallbackConfidence
			f.NeedsReview = true
		}
		f.RawText = clause
		enriched[fields.MainObjectivesSummary] = f
	} else if len(extracted) == 0 {
		enriched = rt.bundleFields(ctx, docType(inputs), inputs, docID)
	}

	rt.logger.InfoContext(ctx, "enrichment finished", "document", docID, "fields", len(enriched))
	return map[string]any{keyEnrichedParts: enriched}, nil
}

const (
	enrichedConfidence = 0.85
	// fallbackConfidence sits under the review floor so deterministic
	// fallback output is always surfaced to a human.
	fallbackConfidence = 0.6
)

// bundleFields runs whole-document model extraction and converts the
// bundle into reviewable fields.
func (rt *Runtime) bundleFields(ctx context.Context, dt classify.DocType, inputs map[string]any, docID string) map[fields.Name]fields.Field {
	segs, err := input[[]segments.Segment](inputs, keySegments)
	if err != nil {
		return nil
	}

	var sb strings.Builder
	for _, seg := range segs {
		sb.WriteString(seg.Text)
		sb.WriteString("\n")
	}

	bundle := rt.enricher.ExtractBundle(ctx, dt, sb.String())
	out := make(map[fields.Name]fields.Field)
	for key, raw := range bundle.Fields {
		if raw == nil {
			continue
		}
		name, err := fields.ParseName(key)
		if err != nil {
			continue
		}
		value, err := fields.FromAny(raw)
		if err != nil {
			rt.logger.WarnContext(ctx, "dropping unconvertible bundle value", "field", key, "error", err)
			continue
		}

		f := fields.New(value, fallbackConfidence, segments.NewSourceRef(docID, 1, segments.CategoryParagraph, "model extraction"))
		f.NeedsReview = true
		out[name] = f
	}
	return out
}

func (rt *Runtime) runMerge(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	docID, err := input[string](inputs, keyDocumentID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindMerge, KindMerge, err)
	}
	projectID, err := input[string](inputs, keyProjectID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindMerge, KindMerge, err)
	}

	combined := collectFields(inputs)
	if enriched, err := input[map[fields.Name]fields.Field](inputs, keyEnrichedParts); err == nil {
		for name, f := range enriched {
			if existing, ok := combined[name]; !ok || f.Confidence > existing.Confidence {
				combined[name] = f
			}
		}
	}

	record, err := rt.projects.MergeDocuments(ctx, projectID, []merge.DocumentFields{{
		DocumentID: docID,
		Fields:     combined,
	}})
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindStorage, KindMerge, err)
	}

	rt.logger.InfoContext(ctx, "document merged into project",
		"document", docID,
		"project", projectID,
		"extracted", record.Summary.FieldsExtracted)
	return map[string]any{
		keyRecord:  record,
		keySummary: record.Summary,
	}, nil
}

func (rt *Runtime) runValidate(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	record, err := input[projects.Record](inputs, keyRecord)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindValidation, KindValidate, err)
	}

	result := validate.Validate(record.Fields)
	rt.logger.InfoContext(ctx, "project validated",
		"project", record.ProjectID,
		"flagged", len(result.FlaggedFields),
		"warnings", len(result.Warnings))
	return map[string]any{
		keyRecord:     record,
		keyValidation: result,
	}, nil
}

func (rt *Runtime) runPersist(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	rawID, err := input[string](inputs, keyDocumentID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindStorage, KindPersist, err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindStorage, KindPersist, err)
	}

	doc, err := rt.documents.UpdateStatus(ctx, id, documents.StatusProcessed)
	if err != nil {
		return nil, workflow.NewNodeError(workflow.ErrorKindStorage, KindPersist, err)
	}

	out := map[string]any{keyStatus: doc.Status}
	if v, err := input[validate.Result](inputs, keyValidation); err == nil {
		out[keyValidation] = v
	}
	return out, nil
}
