package extract

import (
	"regexp"
	"strings"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/segments"
)

var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:NAME OF THE COMPANY|COMPANY NAME)[:.]?\s*([A-Z][A-Z\s&.,()]+?)(?:\s+(?:LIMITED|LTD|PVT|PRIVATE))?(?:\s|$)`),
	regexp.MustCompile(`^([A-Z][A-Z\s&.,()]+?)\s+(?:LIMITED|LTD|PRIVATE LIMITED|PVT)`),
	regexp.MustCompile(`HEREBY CERTIFY THAT\s+([A-Z][A-Z\s&.,()]+?)\s+(?:LIMITED|LTD)`),
}

// CompanyName scans paragraphs for a company-name pattern and returns the
// first match.
func CompanyName(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		if seg.Category != segments.CategoryParagraph {
			continue
		}
		upper := strings.ToUpper(seg.Text)
		for _, pattern := range companyNamePatterns {
			if m := pattern.FindStringSubmatch(upper); m != nil {
				f := fields.New(fields.String(strings.TrimSpace(m[1])), 0.9, seg.Ref(docID))
				f.RawText = seg.Text
				return f, true
			}
		}
	}
	return fields.Field{}, false
}

var cinPattern = regexp.MustCompile(`\b([UL]\d{5}[A-Z]{2}\d{4}[A-Z]{3}\d{6})\b`)

// CIN extracts the Corporate Identity Number from any segment.
func CIN(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		if m := cinPattern.FindStringSubmatch(seg.Text); m != nil {
			f := fields.New(fields.String(m[1]), 0.95, seg.Ref(docID))
			f.RawText = seg.Text
			return f, true
		}
	}
	return fields.Field{}, false
}

var companyTypePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(private limited|public limited|limited|one person company)`),
	regexp.MustCompile(`type of company[:.]?\s*([a-z\s]+)`),
}

// CompanyType extracts the entity subtype (Private Limited, Public Limited, ...).
func CompanyType(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		lower := strings.ToLower(seg.Text)
		for _, pattern := range companyTypePatterns {
			if m := pattern.FindStringSubmatch(lower); m != nil {
				value := titleCase(strings.TrimSpace(m[1]))
				f := fields.New(fields.String(value), 0.85, seg.Ref(docID))
				f.RawText = seg.Text
				return f, true
			}
		}
	}
	return fields.Field{}, false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var formationDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`incorporated on\s+(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`date of incorporation[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(\d{1,2}(?:st|nd|rd|th)?\s+\w+,?\s+\d{4})`),
}

// FormationDate extracts and normalizes the incorporation date.
func FormationDate(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		lower := strings.ToLower(seg.Text)
		for _, pattern := range formationDatePatterns {
			m := pattern.FindStringSubmatch(lower)
			if m == nil {
				continue
			}
			date, ok := NormalizeDate(m[1])
			if !ok {
				continue
			}
			f := fields.New(fields.String(date), 0.9, seg.Ref(docID))
			f.RawText = seg.Text
			return f, true
		}
	}
	return fields.Field{}, false
}

// addressWindow bounds how much text after the "registered office" marker
// is captured as the address.
const addressWindow = 300

// RegisteredOffice captures the text following a "registered office" marker.
func RegisteredOffice(segs []segments.Segment, docID string) (fields.Field, bool) {
	for _, seg := range segs {
		idx := strings.Index(strings.ToLower(seg.Text), "registered office")
		if idx == -1 {
			continue
		}
		end := idx + addressWindow
		if end > len(seg.Text) {
			end = len(seg.Text)
		}
		f := fields.New(fields.String(strings.TrimSpace(seg.Text[idx:end])), 0.8, seg.Ref(docID))
		f.RawText = seg.Text
		return f, true
	}
	return fields.Field{}, false
}
