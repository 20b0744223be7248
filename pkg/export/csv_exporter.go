package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dataset is a header row plus rows keyed by header. Widths are relative
// column weights for the PDF table and are ignored by CSV.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Widths  []float64
}

// Record returns row i ordered by Headers.
func (d Dataset) Record(i int) []string {
	out := make([]string, len(d.Headers))
	for j, h := range d.Headers {
		out[j] = d.Rows[i][h]
	}
	return out
}

var errNoHeaders = errors.New("dataset has no headers")

// CSVExporter writes datasets as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render returns the dataset as CSV bytes.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the dataset to w. Cells a spreadsheet would evaluate as a
// formula get a leading apostrophe.
func (e *CSVExporter) Write(w io.Writer, data Dataset) error {
	if len(data.Headers) == 0 {
		return errNoHeaders
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Headers); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for i := range data.Rows {
		record := data.Record(i)
		for j := range record {
			record[j] = defuse(record[j])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func defuse(cell string) string {
	if cell != "" && strings.IndexByte("=+-@\t\r", cell[0]) >= 0 {
		return "'" + cell
	}
	return cell
}
