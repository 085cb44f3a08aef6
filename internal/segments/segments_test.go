package segments_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lehen20/dpr-auto/internal/segments"
)

type fakeProvider struct {
	segs  []segments.Segment
	pages int
	err   error
}

func (f fakeProvider) Segments(context.Context, string) ([]segments.Segment, int, error) {
	return f.segs, f.pages, f.err
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	seg := segments.Segment{Page: 1, Category: segments.CategoryParagraph, Text: "text"}

	t.Run("first non-empty result wins", func(t *testing.T) {
		chain := segments.Chain{
			fakeProvider{err: errors.New("corrupt stream")},
			fakeProvider{segs: []segments.Segment{seg}, pages: 3},
		}
		segs, pages, err := chain.Segments(ctx, "doc.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(segs) != 1 || pages != 3 {
			t.Errorf("segs = %d, pages = %d", len(segs), pages)
		}
	})

	t.Run("empty result falls through", func(t *testing.T) {
		chain := segments.Chain{
			fakeProvider{pages: 2},
			fakeProvider{segs: []segments.Segment{seg}, pages: 2},
		}
		segs, _, err := chain.Segments(ctx, "doc.pdf")
		if err != nil || len(segs) != 1 {
			t.Errorf("segs = %d, err = %v", len(segs), err)
		}
	})

	t.Run("all providers failing returns last error", func(t *testing.T) {
		lastErr := errors.New("ocr unavailable")
		chain := segments.Chain{
			fakeProvider{err: errors.New("corrupt stream")},
			fakeProvider{err: lastErr},
		}
		_, _, err := chain.Segments(ctx, "doc.pdf")
		if !errors.Is(err, lastErr) {
			t.Errorf("err = %v, want %v", err, lastErr)
		}
	})

	t.Run("empty chain reports no text", func(t *testing.T) {
		_, _, err := segments.Chain{}.Segments(ctx, "doc.pdf")
		if !errors.Is(err, segments.ErrNoText) {
			t.Errorf("err = %v, want ErrNoText", err)
		}
	})

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		chain := segments.Chain{fakeProvider{segs: []segments.Segment{seg}}}
		_, _, err := chain.Segments(cancelled, "doc.pdf")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestNewSourceRef(t *testing.T) {
	t.Run("long snippet truncated", func(t *testing.T) {
		ref := segments.NewSourceRef("doc-1", 2, segments.CategoryParagraph, strings.Repeat("x", 500))
		if len(ref.Snippet) != 200 {
			t.Errorf("snippet length = %d, want 200", len(ref.Snippet))
		}
	})

	t.Run("truncation counts runes", func(t *testing.T) {
		ref := segments.NewSourceRef("doc-1", 2, segments.CategoryParagraph, strings.Repeat("₹", 250))
		if got := len([]rune(ref.Snippet)); got != 200 {
			t.Errorf("snippet runes = %d, want 200", got)
		}
	})
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"heading", "paragraph", "table"} {
		if _, err := segments.ParseCategory(s); err != nil {
			t.Errorf("ParseCategory(%q) error: %v", s, err)
		}
	}
	if _, err := segments.ParseCategory("footnote"); err == nil {
		t.Error("expected error for unknown category")
	}
}
