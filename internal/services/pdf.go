package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// gapFactor scales the font size to the vertical distance above which two
// rows are considered separate paragraphs.
const gapFactor = 1.5

const defaultFontSize = 12.0

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractText returns the text of the document at path, one line per text
// row. Paragraph gaps and page breaks become blank lines, which the record
// extractor uses as answer-block delimiters.
func (s *PDFService) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var out strings.Builder
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read text of page %d: %w", pageNum, err)
		}
		writeRows(&out, rows)
		out.WriteString("\n")
	}
	return out.String(), nil
}

func writeRows(out *strings.Builder, rows pdf.Rows) {
	var (
		prevPos  int64
		prevSize float64
		first    = true
	)
	for _, row := range rows {
		line := rowText(row.Content)
		if strings.TrimSpace(line) == "" {
			continue
		}
		size := rowFontSize(row.Content)
		if !first && float64(prevPos-row.Position) > gapFactor*max(size, prevSize) {
			out.WriteString("\n")
		}
		out.WriteString(line)
		out.WriteString("\n")
		prevPos, prevSize, first = row.Position, size, false
	}
}

// rowText joins the text chunks of a row, inserting a space where the
// horizontal gap between two chunks is wider than a fifth of the font size.
func rowText(texts pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > 0.2*fontSizeOf(t) {
			if s := b.String(); !strings.HasSuffix(s, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteString(" ")
			}
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimRight(b.String(), " ")
}

func rowFontSize(texts pdf.TextHorizontal) float64 {
	size := 0.0
	for _, t := range texts {
		size = max(size, t.FontSize)
	}
	if size <= 0 {
		return defaultFontSize
	}
	return size
}

func fontSizeOf(t pdf.Text) float64 {
	if t.FontSize <= 0 {
		return defaultFontSize
	}
	return t.FontSize
}
