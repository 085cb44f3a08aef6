package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/segments"
)

var capitalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`authorized capital[:.]?\s*rs\.?\s*([\d,]+)`),
	regexp.MustCompile(`authorized share capital[:.]?\s*rs\.?\s*([\d,]+)`),
	regexp.MustCompile(`capital[:.]?\s*rs\.?\s*([\d,]+)\s*(?:lakhs?|crores?)?`),
}

// AuthorizedCapital extracts the authorized share capital as a single
// record carrying the amount in whole INR and the source text.
func AuthorizedCapital(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		lower := strings.ToLower(seg.Text)
		if !strings.Contains(lower, "authorized") || !strings.Contains(lower, "capital") {
			continue
		}
		for _, pattern := range capitalPatterns {
			m := pattern.FindStringSubmatch(lower)
			if m == nil {
				continue
			}
			amount, err := ParseCurrencyINR(m[1])
			if err != nil {
				continue
			}
			// The lakh/crore qualifier sits outside the captured digits.
			switch {
			case strings.Contains(lower, "crore"):
				amount *= 1e7
			case strings.Contains(lower, "lakh"):
				amount *= 1e5
			}
			f := fields.New(fields.Records([]map[string]any{{
				"value":    amount,
				"unit":     "INR",
				"raw_text": seg.Text,
			}}), 0.85, seg.Ref(docID))
			f.RawText = seg.Text
			return f, true
		}
	}
	return fields.Field{}, false
}

var objectiveKeywords = []string{"main objects", "principal objects", "objects of the company"}

// MainObjectives concatenates every segment matching the objects-clause
// keyword set into one combined value. Unlike the other extractors it
// aggregates all matches rather than stopping at the first.
func MainObjectives(segs []segments.Segment, docID string) (fields.Field, bool) {
	var texts []string
	var refs []segments.SourceRef

	for _, seg := range segs {
		lower := strings.ToLower(seg.Text)
		for _, kw := range objectiveKeywords {
			if strings.Contains(lower, kw) {
				texts = append(texts, seg.Text)
				refs = append(refs, seg.Ref(docID))
				break
			}
		}
	}

	if len(texts) == 0 {
		return fields.Field{}, false
	}

	combined := strings.Join(texts, "\n\n")
	f := fields.New(fields.String(combined), 0.9, refs...)
	f.RawText = combined
	return f, true
}

// summaryLimit bounds the derived objectives summary.
const summaryLimit = 200

// SummarizeObjectives derives a truncated summary field from the raw
// objectives field, sharing its provenance.
func SummarizeObjectives(raw fields.Field) fields.Field {
	text, _ := raw.Value.AsString()
	if len(text) > summaryLimit {
		text = text[:summaryLimit] + "..."
	}
	f := fields.New(fields.String(text), 0.8, raw.SourceRefs...)
	f.RawText = raw.RawText
	return f
}

var boardRoleKeywords = []string{"director", "chairman", "managing director"}

// BoardList extracts the governing-body roster from table segments. Rows
// missing the minimum column count are dropped.
func BoardList(segs []segments.Segment, docID string) (fields.Field, bool) {
	var members []map[string]any
	var refs []segments.SourceRef

	for _, seg := range segs {
		if seg.Category != segments.CategoryTable {
			continue
		}
		matched := false
		for _, line := range strings.Split(seg.Text, "\n") {
			lower := strings.ToLower(line)
			if !containsAny(lower, boardRoleKeywords) {
				continue
			}
			parts := strings.Split(line, "\t")
			if len(parts) < 2 {
				continue
			}
			members = append(members, map[string]any{
				"name":     strings.TrimSpace(parts[0]),
				"role":     strings.TrimSpace(parts[1]),
				"raw_text": line,
			})
			matched = true
		}
		if matched {
			refs = append(refs, seg.Ref(docID))
		}
	}

	if len(members) == 0 {
		return fields.Field{}, false
	}

	f := fields.New(fields.Records(members), 0.8, refs...)
	f.RawText = "Board information extracted from tables"
	return f, true
}

var (
	shareRowPattern = regexp.MustCompile(`\d+.*shares?.*\d+%`)
	sharesToken     = regexp.MustCompile(`(\d+)`)
	percentToken    = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
)

// ShareholdingSchedule extracts the ownership schedule from table segments.
// Rows lacking three columns or a numeric/percentage token are dropped.
func ShareholdingSchedule(segs []segments.Segment, docID string) (fields.Field, bool) {
	var holders []map[string]any
	var refs []segments.SourceRef

	for _, seg := range segs {
		if seg.Category != segments.CategoryTable {
			continue
		}
		matched := false
		for _, line := range strings.Split(seg.Text, "\n") {
			if !shareRowPattern.MatchString(strings.ToLower(line)) {
				continue
			}
			parts := strings.Split(line, "\t")
			if len(parts) < 3 {
				continue
			}

			sharesMatch := sharesToken.FindStringSubmatch(parts[1])
			percentMatch := percentToken.FindStringSubmatch(parts[2])
			if sharesMatch == nil && percentMatch == nil {
				continue
			}

			var shares int64
			if sharesMatch != nil {
				shares, _ = strconv.ParseInt(sharesMatch[1], 10, 64)
			}
			var percent float64
			if percentMatch != nil {
				percent, _ = strconv.ParseFloat(percentMatch[1], 64)
			}

			holders = append(holders, map[string]any{
				"shareholder": strings.TrimSpace(parts[0]),
				"shares":      shares,
				"percentage":  percent,
				"raw_text":    line,
			})
			matched = true
		}
		if matched {
			refs = append(refs, seg.Ref(docID))
		}
	}

	if len(holders) == 0 {
		return fields.Field{}, false
	}

	f := fields.New(fields.Records(holders), 0.8, refs...)
	f.RawText = "Shareholding information extracted from tables"
	return f, true
}

// MemorandumPresent marks that a memorandum/articles document was attached.
func MemorandumPresent(docID string) fields.Field {
	ref := segments.NewSourceRef(docID, 1, segments.CategoryParagraph, "Document detected")
	f := fields.New(fields.Bool(true), 0.95, ref)
	f.RawText = "MoA/AoA document detected"
	return f
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
