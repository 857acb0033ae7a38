package delimited

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/de-tools/report-export/pkg/models/domain"
)

// Exporter writes a report as delimiter-separated text. Aggregate rows are
// written as ordinary lines after the data; the format has no styling.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// ValidateDelimiter rejects runes that cannot separate quoted fields.
func ValidateDelimiter(d rune) error {
	if d == 0 || d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError || !utf8.ValidRune(d) {
		return fmt.Errorf("%w: delimiter %q is not allowed", domain.ErrInvalidConfiguration, d)
	}
	return nil
}

func (e *Exporter) Export(report *domain.TabularReport, delimiter rune) ([]byte, error) {
	if err := ValidateDelimiter(delimiter); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter

	columns := report.Columns()
	record := make([]string, len(columns))

	for i, col := range columns {
		record[i] = col.Name
	}
	if err := w.Write(record); err != nil {
		return nil, domain.NewExportError(domain.FormatDelimited, fmt.Errorf("failed to write header: %w", err))
	}

	for n, row := range report.Rows() {
		for i, col := range columns {
			record[i] = domain.CellText(col, row.Cell(i))
		}
		if err := w.Write(record); err != nil {
			return nil, domain.NewExportError(domain.FormatDelimited, fmt.Errorf("failed to write row %d: %w", n, err))
		}
	}

	for _, agg := range report.Aggregates() {
		for i, col := range columns {
			record[i] = agg.Text(col, i)
		}
		if err := w.Write(record); err != nil {
			return nil, domain.NewExportError(domain.FormatDelimited, fmt.Errorf("failed to write aggregate %q: %w", agg.Label, err))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, domain.NewExportError(domain.FormatDelimited, err)
	}

	return buf.Bytes(), nil
}
