package services

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(pos int64, chunks ...pdf.Text) *pdf.Row {
	return &pdf.Row{Position: pos, Content: pdf.TextHorizontal(chunks)}
}

func chunk(x, w float64, s string) pdf.Text {
	return pdf.Text{X: x, W: w, S: s, FontSize: 10}
}

func TestWriteRowsSeparatesParagraphs(t *testing.T) {
	rows := pdf.Rows{
		row(700, chunk(50, 40, "1. What"), chunk(95, 30, "is it?")),
		row(688, chunk(50, 60, "Continued [1]")),
		row(660, chunk(50, 20, "a) yes")),
		row(632, chunk(50, 20, "b) no")),
		row(620, chunk(50, 20, "still b")),
	}

	var out strings.Builder
	writeRows(&out, rows)

	assert.Equal(t, "1. What is it?\nContinued [1]\n\na) yes\n\nb) no\nstill b\n", out.String())
}

func TestRowTextJoinsAdjacentChunks(t *testing.T) {
	got := rowText(pdf.TextHorizontal{
		chunk(10, 10, "Kapi"),
		chunk(20, 10, "tän"),
		chunk(40, 10, "an"),
		chunk(50.5, 10, " Bord"),
	})
	assert.Equal(t, "Kapitän an Bord", got)
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := NewPDFService().ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
