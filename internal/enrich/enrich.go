// Package enrich wraps the external text-generation service behind
// versioned prompt templates. Every operation degrades to a deterministic
// local response on failure; enrichment never blocks the pipeline.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/lehen20/dpr-auto/internal/classify"
	"github.com/lehen20/dpr-auto/pkg/formatting"
)

// PurposeVocabulary is the closed tag set for clause summaries. Tags the
// service invents outside this set are dropped.
var PurposeVocabulary = []string{
	"compliance", "governance", "operations", "financial",
	"regulatory", "business_activity", "risk_management",
}

// summaryWordLimit bounds clause summaries.
const summaryWordLimit = 40

// ClauseSummary is the contract for clause summarization output.
type ClauseSummary struct {
	Summary     string   `json:"summary"`
	PurposeTags []string `json:"purpose_tags"`
	Fallback    bool     `json:"fallback,omitempty"`
}

// Bundle carries the typed field values the service resolved for one
// document, null for the rest. Degraded marks output recovered through the
// brace-matching parser; RawResponse preserves unparsable output for audit.
type Bundle struct {
	DocType     classify.DocType `json:"doc_type"`
	Fields      map[string]any   `json:"fields"`
	Degraded    bool             `json:"degraded,omitempty"`
	RawResponse string           `json:"raw_response,omitempty"`
}

// DraftSection is one generated report section with its citations.
type DraftSection struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	SourceRefs []string `json:"source_refs"`
}

// Adapter calls the enrichment model. A nil model is valid and routes every
// call straight to the local fallback.
type Adapter struct {
	model       llms.Model
	logger      *slog.Logger
	temperature float64
	maxTokens   int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTemperature sets the sampling temperature for all requests.
func WithTemperature(t float64) Option {
	return func(a *Adapter) { a.temperature = t }
}

// WithMaxTokens caps response length.
func WithMaxTokens(n int) Option {
	return func(a *Adapter) { a.maxTokens = n }
}

// NewAdapter creates an enrichment adapter. model may be nil.
func NewAdapter(model llms.Model, logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		model:       model,
		logger:      logger.With("system", "enrich"),
		temperature: 0.1,
		maxTokens:   512,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SummarizeClause condenses raw clause text into a bounded summary with
// purpose tags from the fixed vocabulary. Never returns an error: service
// or parse failures yield the deterministic fallback summary.
func (a *Adapter) SummarizeClause(ctx context.Context, rawClause string) ClauseSummary {
	if a.model == nil {
		return fallbackSummary()
	}

	response, err := a.generate(ctx, fmt.Sprintf(clauseSummaryPrompt, rawClause))
	if err != nil {
		a.logger.WarnContext(ctx, "clause summarization unavailable, using fallback", "error", err)
		return fallbackSummary()
	}

	summary, err := formatting.Parse[ClauseSummary](response)
	if err != nil {
		a.logger.WarnContext(ctx, "unparsable clause summary, using fallback", "error", err)
		return unparsableSummary()
	}

	summary.Summary = truncateWords(summary.Summary, summaryWordLimit)
	summary.PurposeTags = filterTags(summary.PurposeTags)
	return summary
}

// ExtractBundle requests the typed field bundle for a document type. Two
// strategies run in order: a schema-constrained request parsed strictly,
// then a free-text request parsed by brace matching. The degraded parser
// only ever feeds the fallback path. Both failing yields an all-null
// bundle with the raw response preserved.
func (a *Adapter) ExtractBundle(ctx context.Context, docType classify.DocType, corpus string) Bundle {
	keys := bundleKeys(docType)
	if a.model == nil {
		return nullBundle(docType, keys, "")
	}

	keyList := strings.Join(keys, ", ")

	strict, strictErr := a.generate(ctx, fmt.Sprintf(bundleStrictPrompt, string(docType), corpus, keyList))
	if strictErr == nil {
		if parsed, err := formatting.Parse[map[string]any](strict); err == nil {
			return Bundle{DocType: docType, Fields: restrictKeys(parsed, keys)}
		}
	} else {
		a.logger.WarnContext(ctx, "structured extraction request failed", "error", strictErr)
	}

	free, freeErr := a.generate(ctx, fmt.Sprintf(bundleFreeTextPrompt, string(docType), keyList, corpus))
	if freeErr == nil {
		if extracted, err := formatting.ExtractJSON(free); err == nil {
			var parsed map[string]any
			if json.Unmarshal([]byte(extracted), &parsed) == nil {
				return Bundle{DocType: docType, Fields: restrictKeys(parsed, keys), Degraded: true}
			}
		}
	} else {
		a.logger.WarnContext(ctx, "free-text extraction request failed", "error", freeErr)
	}

	raw := strict
	if raw == "" {
		raw = free
	}
	a.logger.WarnContext(ctx, "both extraction strategies failed, returning null bundle", "doc_type", string(docType))
	return nullBundle(docType, keys, raw)
}

// DraftSections generates report sections from consolidated company
// information. Failures yield the deterministic local draft.
func (a *Adapter) DraftSections(ctx context.Context, name, registration, companyType, objectives string) []DraftSection {
	if a.model == nil {
		return fallbackSections()
	}

	response, err := a.generate(ctx, fmt.Sprintf(draftSectionsPrompt, name, registration, companyType, objectives))
	if err != nil {
		a.logger.WarnContext(ctx, "draft generation unavailable, using fallback", "error", err)
		return fallbackSections()
	}

	parsed, err := formatting.Parse[struct {
		Sections []DraftSection `json:"sections"`
	}](response)
	if err != nil || len(parsed.Sections) == 0 {
		return fallbackSections()
	}
	return parsed.Sections
}

func (a *Adapter) generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	}}

	resp, err := a.model.GenerateContent(ctx, messages,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Choices[0].Content, nil
}

// bundleKeys lists the field contract per document type.
func bundleKeys(docType classify.DocType) []string {
	switch docType {
	case classify.TypeCertificateOfIncorporation:
		return []string{
			"name", "registration_number", "company_type",
			"date_of_formation", "date_of_commencement", "registered_office_address",
		}
	case classify.TypeMoAAoA:
		return []string{
			"authorized_share_capital", "main_objectives_summary",
			"inclusiveness_policy_summary", "board_list", "shareholding_schedule",
		}
	default:
		return nil
	}
}

// restrictKeys keeps only contract keys, filling absent ones with null.
func restrictKeys(parsed map[string]any, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		out[key] = parsed[key]
	}
	return out
}

func truncateWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}

func filterTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		for _, known := range PurposeVocabulary {
			if tag == known {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}
