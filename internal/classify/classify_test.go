package classify_test

import (
	"testing"

	"github.com/lehen20/dpr-auto/internal/classify"
	"github.com/lehen20/dpr-auto/internal/segments"
)

func paragraphs(texts ...string) []segments.Segment {
	segs := make([]segments.Segment, len(texts))
	for i, text := range texts {
		segs[i] = segments.Segment{Page: 1, Category: segments.CategoryParagraph, Text: text}
	}
	return segs
}

func TestClassify(t *testing.T) {
	t.Run("certificate of incorporation", func(t *testing.T) {
		segs := paragraphs(
			"Certificate of Incorporation",
			"Issued by the Registrar of Companies",
			"Corporate Identity Number: U12345MH2021PTC123456",
		)
		if got := classify.Classify(segs); got != classify.TypeCertificateOfIncorporation {
			t.Errorf("Classify = %q, want %q", got, classify.TypeCertificateOfIncorporation)
		}
	})

	t.Run("memorandum", func(t *testing.T) {
		segs := paragraphs(
			"Memorandum of Association",
			"The authorized capital of the company shall be Rs. 10,00,000",
			"Main objects to be pursued by the company",
		)
		if got := classify.Classify(segs); got != classify.TypeMoAAoA {
			t.Errorf("Classify = %q, want %q", got, classify.TypeMoAAoA)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		segs := paragraphs("CERTIFICATE OF INCORPORATION", "REGISTRAR OF COMPANIES")
		if got := classify.Classify(segs); got != classify.TypeCertificateOfIncorporation {
			t.Errorf("Classify = %q, want %q", got, classify.TypeCertificateOfIncorporation)
		}
	})

	t.Run("no keywords is unknown", func(t *testing.T) {
		segs := paragraphs("quarterly revenue report", "fiscal year 2023")
		if got := classify.Classify(segs); got != classify.TypeUnknown {
			t.Errorf("Classify = %q, want %q", got, classify.TypeUnknown)
		}
	})

	t.Run("equal nonzero scores are unknown", func(t *testing.T) {
		segs := paragraphs(
			"Certificate of Incorporation",
			"Memorandum of Association",
		)
		if got := classify.Classify(segs); got != classify.TypeUnknown {
			t.Errorf("Classify = %q, want %q", got, classify.TypeUnknown)
		}
	})

	t.Run("empty input is unknown", func(t *testing.T) {
		if got := classify.Classify(nil); got != classify.TypeUnknown {
			t.Errorf("Classify = %q, want %q", got, classify.TypeUnknown)
		}
	})
}

func TestKnown(t *testing.T) {
	if classify.TypeUnknown.Known() {
		t.Error("unknown should not be a known type")
	}
	if !classify.TypeCertificateOfIncorporation.Known() || !classify.TypeMoAAoA.Known() {
		t.Error("recognized document types should report Known")
	}
}
