package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	portraitWidth      = 190.0
	landscapeWidth     = 277.0
	portraitMaxColumns = 6
	headerRowHeight    = 8.0
	bodyRowHeight      = 7.0
	bottomMargin       = 15.0
)

// PDFExporter lays datasets out as a paginated table. The header row repeats on every
// page, numeric cells are right aligned and each page carries a numbered footer.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render produces the document. Tables wider than six columns switch to landscape and
// cell text is cut to the column width.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation, width := "P", portraitWidth
	if len(data.Headers) > portraitMaxColumns {
		orientation, width = "L", landscapeWidth
	}
	colWidth := width / float64(len(data.Headers))
	numeric := numericColumns(data)

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.AliasNbPages("")
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(width/2, 5, fmt.Sprintf("%d rows, generated %s", len(data.Rows), generated), "", 0, "L", false, 0, "")
		pdf.CellFormat(width/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(220, 226, 235)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, headerRowHeight, fit(pdf, header, colWidth), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	pdf.SetFillColor(245, 247, 250)
	for i, row := range data.Rows {
		if pdf.GetY()+bodyRowHeight > pageHeight-bottomMargin {
			pdf.AddPage()
			writeHeader()
			pdf.SetFillColor(245, 247, 250)
		}
		stripe := i%2 == 1
		for col, header := range data.Headers {
			align := "L"
			if numeric[col] {
				align = "R"
			}
			pdf.CellFormat(colWidth, bodyRowHeight, fit(pdf, row[header], colWidth), "1", 0, align, stripe, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// numericColumns marks columns whose non-empty cells all parse as numbers.
func numericColumns(data Dataset) []bool {
	numeric := make([]bool, len(data.Headers))
	for col, header := range data.Headers {
		seen := false
		numeric[col] = true
		for _, row := range data.Rows {
			cell := strings.TrimSpace(row[header])
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[col] = false
				break
			}
		}
		numeric[col] = numeric[col] && seen
	}
	return numeric
}

// fit trims text until it fits the cell, leaving room for padding.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"..") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}
