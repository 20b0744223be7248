package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Document is a printable, sectioned page such as a crisis plan.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

// Section is a heading followed by an optional paragraph and bullet items.
type Section struct {
	Heading string
	Body    string
	Items   []string
}

// PDFExporter renders datasets and documents into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape table with an optional title. Cell text that
// does not fit its column is truncated with an ellipsis.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(data, 277.0)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range data.Headers {
		pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for r := range data.Rows {
		for i, cell := range data.Record(r) {
			pdf.CellFormat(widths[i], 7, fit(pdf, tr(cell), widths[i]-2), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// RenderDocument renders a portrait, sectioned document.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("pdf document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(doc.Title), "", "L", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, tr(doc.Subtitle), "", "L", false)
	}
	pdf.Ln(4)

	for _, section := range doc.Sections {
		if section.Body == "" && len(section.Items) == 0 {
			continue
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(0, 7, tr(section.Heading), "B", "L", false)
		pdf.Ln(1)
		pdf.SetFont("Arial", "", 10)
		if section.Body != "" {
			pdf.MultiCell(0, 5, tr(section.Body), "", "L", false)
		}
		for _, item := range section.Items {
			pdf.MultiCell(0, 5, tr("- "+item), "", "L", false)
		}
		pdf.Ln(3)
	}

	return output(pdf)
}

func columnWidths(data Dataset, total float64) []float64 {
	widths := make([]float64, len(data.Headers))
	if len(data.Widths) != len(data.Headers) {
		for i := range widths {
			widths[i] = total / float64(len(widths))
		}
		return widths
	}
	var sum float64
	for _, w := range data.Widths {
		sum += w
	}
	for i, w := range data.Widths {
		widths[i] = total * w / sum
	}
	return widths
}

func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
