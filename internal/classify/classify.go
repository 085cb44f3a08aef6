// Package classify assigns a document-type label from segment content
// using keyword scoring.
package classify

import (
	"strings"

	"github.com/lehen20/dpr-auto/internal/segments"
)

// DocType labels the kind of legal document a set of segments came from.
type DocType string

const (
	TypeCertificateOfIncorporation DocType = "certificate_of_incorporation"
	TypeMoAAoA                     DocType = "moa_aoa"
	TypeUnknown                    DocType = "unknown"
)

// Known reports whether the label identifies a recognized document kind.
func (t DocType) Known() bool {
	return t == TypeCertificateOfIncorporation || t == TypeMoAAoA
}

var certificateKeywords = []string{
	"certificate of incorporation",
	"registrar of companies",
	"corporate identity number",
	"cin",
}

var memorandumKeywords = []string{
	"memorandum of association",
	"articles of association",
	"authorized capital",
	"main objects",
}

// Classify scores keyword hits over the lower-cased concatenation of all
// segment text and returns the label with the strictly higher score.
// Ties and zero scores on both sides resolve to unknown. Deterministic
// and total: never fails, never blocks.
func Classify(segs []segments.Segment) DocType {
	var sb strings.Builder
	for _, seg := range segs {
		sb.WriteString(strings.ToLower(seg.Text))
		sb.WriteByte(' ')
	}
	corpus := sb.String()

	certScore := score(corpus, certificateKeywords)
	moaScore := score(corpus, memorandumKeywords)

	switch {
	case certScore > moaScore:
		return TypeCertificateOfIncorporation
	case moaScore > certScore:
		return TypeMoAAoA
	default:
		return TypeUnknown
	}
}

func score(corpus string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(corpus, kw) {
			hits++
		}
	}
	return hits
}
