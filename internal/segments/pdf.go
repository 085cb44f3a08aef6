package segments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProvider extracts text segments directly from PDF content streams.
// Pages without extractable text are omitted rather than half-filled.
type PDFProvider struct {
	logger *slog.Logger
}

// NewPDFProvider creates a PDF segment provider.
func NewPDFProvider(logger *slog.Logger) *PDFProvider {
	return &PDFProvider{logger: logger.With("system", "segments")}
}

// Segments extracts ordered segments and the page count from a PDF file.
func (p *PDFProvider) Segments(ctx context.Context, path string) ([]Segment, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, 0, fmt.Errorf("read pdf: %w", err)
	}

	var segs []Segment
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		text := extractPageText(pdfCtx, pageNr)
		if text == "" {
			p.logger.WarnContext(ctx, "page yielded no text, omitting", "path", path, "page", pageNr)
			continue
		}

		segs = append(segs, segmentPage(pageNr, text)...)
	}

	return segs, pdfCtx.PageCount, nil
}

// extractPageText pulls the page's content stream and decodes its text
// show operators, one line per text run.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return decodeContentStream(data)
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

func decodeContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return strings.TrimSpace(sb.String())
}

// decodePDFString handles basic PDF literal string escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

var headingPrefixes = []string{"ARTICLE", "CLAUSE", "SECTION"}

// segmentPage splits page text into classified segments. Runs of tab-joined
// lines become one table segment; short all-caps lines or lines opening with
// an article marker become headings; everything else groups into paragraphs
// split on blank lines.
func segmentPage(page int, text string) []Segment {
	var segs []Segment
	var para []string
	var table []string

	flushPara := func() {
		if len(para) > 0 {
			segs = append(segs, Segment{Page: page, Category: CategoryParagraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}
	flushTable := func() {
		if len(table) > 0 {
			segs = append(segs, Segment{Page: page, Category: CategoryTable, Text: strings.Join(table, "\n")})
			table = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " ")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushTable()
			flushPara()
		case strings.Contains(line, "\t"):
			flushPara()
			table = append(table, line)
		case isHeading(trimmed):
			flushTable()
			flushPara()
			segs = append(segs, Segment{Page: page, Category: CategoryHeading, Text: trimmed})
		default:
			flushTable()
			para = append(para, trimmed)
		}
	}
	flushTable()
	flushPara()

	return segs
}

func isHeading(line string) bool {
	if len(line) >= 100 {
		return false
	}
	upper := strings.ToUpper(line)
	for _, prefix := range headingPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return line == upper && strings.ContainsFunc(line, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	})
}
