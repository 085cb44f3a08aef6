package segments

import (
	"context"
	"errors"
)

// ErrNoText indicates a document yielded no extractable segments.
var ErrNoText = errors.New("no extractable text in document")

// Provider extracts ordered segments from a document file. Implementations
// must never return a partially populated page: a page that cannot be
// processed is omitted entirely.
type Provider interface {
	Segments(ctx context.Context, path string) ([]Segment, int, error)
}

// Chain tries each provider in order, returning the first non-empty result.
// Used to hang an OCR fallback behind the primary text extractor.
type Chain []Provider

func (c Chain) Segments(ctx context.Context, path string) ([]Segment, int, error) {
	var lastErr error = ErrNoText
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		segs, pages, err := p.Segments(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}
		if len(segs) > 0 {
			return segs, pages, nil
		}
	}
	return nil, 0, lastErr
}
