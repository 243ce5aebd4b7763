package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := newDocument(title)
	writeTable(pdf, data.Headers, data.Rows)
	return output(pdf)
}

// RenderSections creates a PDF with one headed table per section. Used for
// invigilation schedules grouped by exam date or by educator.
func (e *PDFExporter) RenderSections(headers []string, sections []Section, title string) ([]byte, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := newDocument(title)
	for _, section := range sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 9, section.Heading, "", 1, "L", false, 0, "")
		writeTable(pdf, headers, section.Rows)
		pdf.Ln(4)
	}
	return output(pdf)
}

func newDocument(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	return pdf
}

func writeTable(pdf *gofpdf.Fpdf, headers []string, rows []map[string]string) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(headers))
	for _, header := range headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for _, header := range headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
