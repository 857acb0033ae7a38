package spreadsheet

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	maxSheetName = 31
	titleRow     = 1
)

// Exporter writes a report as a single-sheet xlsx workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(report *domain.TabularReport) ([]byte, error) {
	out, err := e.build(report)
	if err != nil {
		return nil, domain.NewExportError(domain.FormatSpreadsheet, err)
	}
	return out, nil
}

type styles struct {
	title, subtitle, header int
	data                    []int
	aggregate               []int
}

func (e *Exporter) build(report *domain.TabularReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	meta := report.Metadata()
	sheet := SheetName(meta.Title)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	stamp := meta.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:    meta.Title,
		Subject:  meta.Subtitle,
		Creator:  "report-export",
		Created:  stamp.UTC().Format(time.RFC3339),
		Modified: stamp.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	columns := report.Columns()
	st, err := newStyles(f, columns)
	if err != nil {
		return nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return nil, err
	}

	row := titleRow
	for _, block := range []struct {
		text  string
		style int
	}{
		{text: meta.Title, style: st.title},
		{text: meta.Subtitle, style: st.subtitle},
	} {
		if block.text == "" {
			continue
		}
		first := fmt.Sprintf("A%d", row)
		if err := f.SetCellStr(sheet, first, block.text); err != nil {
			return nil, err
		}
		if len(columns) > 1 {
			if err := f.MergeCell(sheet, first, fmt.Sprintf("%s%d", lastCol, row)); err != nil {
				return nil, fmt.Errorf("failed to merge header: %w", err)
			}
		}
		if err := f.SetCellStyle(sheet, first, first, block.style); err != nil {
			return nil, err
		}
		row++
	}

	headerRow := row
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellStr(sheet, cell, col.Name); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, columnName(i), columnName(i), columnWidth(col)); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(columns), row)
	if err := f.SetCellStyle(sheet, first, last, st.header); err != nil {
		return nil, err
	}
	row++

	for n, r := range report.Rows() {
		if err := writeRow(f, sheet, row, columns, r, st.data); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", n, err)
		}
		row++
	}

	for _, agg := range report.Aggregates() {
		if err := writeRow(f, sheet, row, columns, agg.Row, st.aggregate); err != nil {
			return nil, fmt.Errorf("failed to write aggregate %q: %w", agg.Label, err)
		}
		if i := agg.LabelIndex(); i >= 0 {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellStr(sheet, cell, agg.Label); err != nil {
				return nil, fmt.Errorf("failed to write aggregate %q: %w", agg.Label, err)
			}
		}
		row++
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, columns []domain.Column, r domain.Row, styles []int) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := setCell(f, sheet, cell, col, r.Cell(i)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles[i]); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, col domain.Column, v any) error {
	if v == nil {
		return nil
	}

	switch col.Type {
	case domain.ColumnInteger:
		return f.SetCellInt(sheet, cell, int(v.(int64)))
	case domain.ColumnDecimal, domain.ColumnCurrency:
		// Rounded first so the cell displays the same digits as the other formats.
		// Values that do not survive a float64 round trip are written as text.
		d := domain.Rounded(col, v.(decimal.Decimal))
		n := d.InexactFloat64()
		if math.IsInf(n, 0) || !decimal.NewFromFloat(n).Equal(d) {
			return f.SetCellStr(sheet, cell, domain.CellText(col, d))
		}
		return f.SetCellFloat(sheet, cell, n, int(col.Hint.DecimalPlaces()), 64)
	case domain.ColumnDate:
		return f.SetCellValue(sheet, cell, v.(time.Time))
	default:
		return f.SetCellStr(sheet, cell, domain.CellText(col, v))
	}
}

func newStyles(f *excelize.File, columns []domain.Column) (*styles, error) {
	var (
		st  styles
		err error
	)

	if st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	if st.subtitle, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true},
	}); err != nil {
		return nil, fmt.Errorf("failed to create subtitle style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
		Border: border("bottom", 1),
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for _, col := range columns {
		data, err := f.NewStyle(cellStyle(col, false))
		if err != nil {
			return nil, fmt.Errorf("failed to create style for %q: %w", col.Name, err)
		}
		agg, err := f.NewStyle(cellStyle(col, true))
		if err != nil {
			return nil, fmt.Errorf("failed to create aggregate style for %q: %w", col.Name, err)
		}
		st.data = append(st.data, data)
		st.aggregate = append(st.aggregate, agg)
	}
	return &st, nil
}

func cellStyle(col domain.Column, aggregate bool) *excelize.Style {
	s := &excelize.Style{}
	if format := NumberFormat(col); format != "" {
		s.CustomNumFmt = &format
	}
	if col.Type.Numeric() {
		s.Alignment = &excelize.Alignment{Horizontal: "right"}
	} else {
		s.Alignment = &excelize.Alignment{Horizontal: "left"}
	}
	if aggregate {
		s.Font = &excelize.Font{Bold: true}
		s.Border = border("top", 2)
	}
	return s
}

func border(side string, style int) []excelize.Border {
	return []excelize.Border{{Type: side, Color: "000000", Style: style}}
}

// NumberFormat returns the Excel number format applied to a column's cells.
func NumberFormat(col domain.Column) string {
	switch col.Type {
	case domain.ColumnInteger:
		return "0"
	case domain.ColumnDecimal:
		return fixed(col.Hint.DecimalPlaces())
	case domain.ColumnCurrency:
		if col.Hint.CurrencySymbol == "" {
			return fixed(col.Hint.DecimalPlaces())
		}
		symbol := `"` + strings.ReplaceAll(col.Hint.CurrencySymbol, `"`, `""`) + `"`
		return symbol + fixed(col.Hint.DecimalPlaces()) + ";-" + symbol + fixed(col.Hint.DecimalPlaces())
	case domain.ColumnDate:
		return DateFormat(col.Hint.Layout())
	}
	return ""
}

func fixed(places int32) string {
	if places <= 0 {
		return "0"
	}
	return "0." + strings.Repeat("0", int(places))
}

// Go reference-time tokens, longest first so prefixes do not shadow them.
var layoutTokens = []struct{ goToken, excel string }{
	{"January", "mmmm"},
	{"Monday", "dddd"},
	{"2006", "yyyy"},
	{"Jan", "mmm"},
	{"Mon", "ddd"},
	{"01", "mm"},
	{"02", "dd"},
	{"15", "hh"},
	{"03", "hh"},
	{"04", "mm"},
	{"05", "ss"},
	{"06", "yy"},
	{"PM", "AM/PM"},
	{"1", "m"},
	{"2", "d"},
}

// DateFormat converts a Go time layout into the equivalent Excel pattern.
// Characters that are not layout tokens are copied as literals.
func DateFormat(layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		matched := false
		for _, tok := range layoutTokens {
			if strings.HasPrefix(layout[i:], tok.goToken) {
				b.WriteString(tok.excel)
				i += len(tok.goToken)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		c := layout[i]
		switch c {
		case '-', '/', ':', ' ', '.', ',':
			b.WriteByte(c)
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}

// SheetName derives a valid worksheet name from a report title.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")

	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	if name == "" {
		return "Report"
	}
	return name
}

func columnName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func columnWidth(col domain.Column) float64 {
	width := float64(len([]rune(col.Name))) + 4
	if width < 12 {
		width = 12
	}
	return width * col.Hint.RelativeWidth()
}
