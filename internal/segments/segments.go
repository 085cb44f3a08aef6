// Package segments defines the typed text units produced by document
// layout analysis, and the provider contract for obtaining them.
package segments

import (
	"encoding/json"
	"fmt"
)

// Category classifies a segment's structural role on the page.
type Category string

const (
	CategoryHeading   Category = "heading"
	CategoryParagraph Category = "paragraph"
	CategoryTable     Category = "table"
)

// ParseCategory converts a string to a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryHeading, CategoryParagraph, CategoryTable:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown segment category: %q", s)
	}
}

// UnmarshalJSON validates the category on decode.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Rect is a bounding box in page coordinates.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Segment is one classified unit of extracted document text. Segments are
// produced once per document by a Provider and never modified afterward.
type Segment struct {
	Page     int      `json:"page"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	BBox     *Rect    `json:"bbox,omitempty"`
}

// snippetLimit bounds SourceRef snippets for audit display.
const snippetLimit = 200

// SourceRef is a provenance pointer from an extracted value back to the
// segment it came from. Informational only; never used for ownership.
type SourceRef struct {
	DocumentID string   `json:"document_id"`
	Page       int      `json:"page"`
	Category   Category `json:"category"`
	Snippet    string   `json:"snippet"`
}

// NewSourceRef builds a SourceRef, truncating the snippet to the audit limit.
func NewSourceRef(docID string, page int, category Category, snippet string) SourceRef {
	runes := []rune(snippet)
	if len(runes) > snippetLimit {
		snippet = string(runes[:snippetLimit])
	}
	return SourceRef{
		DocumentID: docID,
		Page:       page,
		Category:   category,
		Snippet:    snippet,
	}
}

// Ref builds a SourceRef pointing at this segment.
func (s Segment) Ref(docID string) SourceRef {
	return NewSourceRef(docID, s.Page, s.Category, s.Text)
}
