package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnType is the declared type of a report column. Rendering in every
// output format is driven by it, never by the runtime type of a cell.
type ColumnType string

const (
	ColumnText     ColumnType = "text"
	ColumnInteger  ColumnType = "integer"
	ColumnDecimal  ColumnType = "decimal"
	ColumnDate     ColumnType = "date"
	ColumnCurrency ColumnType = "currency"
)

func (t ColumnType) Valid() bool {
	switch t {
	case ColumnText, ColumnInteger, ColumnDecimal, ColumnDate, ColumnCurrency:
		return true
	}
	return false
}

// Numeric reports whether values of this type are right-aligned quantities.
func (t ColumnType) Numeric() bool {
	return t == ColumnInteger || t == ColumnDecimal || t == ColumnCurrency
}

const (
	DefaultPlaces      int32 = 2
	DefaultDatePattern       = "2006-01-02"
)

// FormatHint tunes how a column's values are rendered.
// Zero values fall back to the defaults.
type FormatHint struct {
	Places         *int32
	DatePattern    string
	CurrencySymbol string
	Width          float64 // relative width in paginated output
}

func (h FormatHint) DecimalPlaces() int32 {
	if h.Places == nil || *h.Places < 0 {
		return DefaultPlaces
	}
	return *h.Places
}

func (h FormatHint) Layout() string {
	if h.DatePattern == "" {
		return DefaultDatePattern
	}
	return h.DatePattern
}

func (h FormatHint) RelativeWidth() float64 {
	if h.Width <= 0 {
		return 1
	}
	return h.Width
}

// Places is a helper for building a FormatHint literal.
func Places(n int32) *int32 {
	return &n
}

type Column struct {
	Name string
	Type ColumnType
	Hint FormatHint
}

// Row holds cells positionally aligned with the report columns.
type Row struct {
	cells []any
}

func (r Row) Len() int {
	return len(r.cells)
}

func (r Row) Cell(i int) any {
	return r.cells[i]
}

// AggregateRow is a computed summary line such as "Total". It is always
// rendered after the data rows.
type AggregateRow struct {
	Label string
	Row
}

// LabelIndex is the column that shows the label: the first column when its
// cell is empty, otherwise -1 and the producer placed the label itself.
func (a AggregateRow) LabelIndex() int {
	if a.Len() > 0 && a.Cell(0) == nil {
		return 0
	}
	return -1
}

// Text renders cell i of the aggregate, with the label in place of an empty
// first cell.
func (a AggregateRow) Text(col Column, i int) string {
	if i == a.LabelIndex() {
		return a.Label
	}
	return CellText(col, a.Cell(i))
}

// Metadata is report-level information rendered in document headers.
type Metadata struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
}

// TabularReport is the sealed, read-only dataset handed to the exporters.
type TabularReport struct {
	meta       Metadata
	columns    []Column
	rows       []Row
	aggregates []AggregateRow
}

func (r *TabularReport) Metadata() Metadata {
	return r.meta
}

func (r *TabularReport) Columns() []Column {
	return append([]Column(nil), r.columns...)
}

func (r *TabularReport) ColumnCount() int {
	return len(r.columns)
}

func (r *TabularReport) Column(i int) Column {
	return r.columns[i]
}

// Rows returns the data rows in their original order. Callers must not
// modify the returned slice.
func (r *TabularReport) Rows() []Row {
	return r.rows
}

func (r *TabularReport) Aggregates() []AggregateRow {
	return r.aggregates
}

// Builder assembles a TabularReport. Rows may only be appended until Seal
// is called.
type Builder struct {
	report *TabularReport
	sealed bool
}

func NewBuilder(meta Metadata, columns ...Column) (*Builder, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: report has no columns", ErrMalformedReport)
	}

	seen := make(map[string]struct{}, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrMalformedReport, i)
		}
		if _, ok := seen[col.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedReport, col.Name)
		}
		if !col.Type.Valid() {
			return nil, fmt.Errorf("%w: column %q has unknown type %q", ErrMalformedReport, col.Name, col.Type)
		}
		seen[col.Name] = struct{}{}
	}

	return &Builder{
		report: &TabularReport{
			meta:    meta,
			columns: append([]Column(nil), columns...),
		},
	}, nil
}

func (b *Builder) Columns() []Column {
	return b.report.Columns()
}

// AddRow appends a data row. Cells are converted to their canonical type.
func (b *Builder) AddRow(cells ...any) error {
	row, err := b.row(cells)
	if err != nil {
		return fmt.Errorf("row %d: %w", len(b.report.rows), err)
	}
	b.report.rows = append(b.report.rows, row)
	return nil
}

// AddAggregate appends a summary row after the data rows. Exporters print the
// label in the first cell when it is nil; otherwise the cells are rendered
// as given.
func (b *Builder) AddAggregate(label string, cells ...any) error {
	if label == "" {
		return fmt.Errorf("%w: aggregate row has no label", ErrMalformedReport)
	}
	row, err := b.row(cells)
	if err != nil {
		return fmt.Errorf("aggregate %q: %w", label, err)
	}
	b.report.aggregates = append(b.report.aggregates, AggregateRow{Label: label, Row: row})
	return nil
}

// Seal freezes the report. The builder cannot be used afterwards.
func (b *Builder) Seal() (*TabularReport, error) {
	if b.sealed {
		return nil, fmt.Errorf("%w: report already sealed", ErrMalformedReport)
	}
	b.sealed = true
	return b.report, nil
}

func (b *Builder) row(cells []any) (Row, error) {
	if b.sealed {
		return Row{}, fmt.Errorf("%w: report already sealed", ErrMalformedReport)
	}
	if len(cells) != len(b.report.columns) {
		return Row{}, fmt.Errorf("%w: got %d cells for %d columns",
			ErrMalformedReport, len(cells), len(b.report.columns))
	}

	out := make([]any, len(cells))
	for i, cell := range cells {
		col := b.report.columns[i]
		v, err := normalize(col.Type, cell)
		if err != nil {
			return Row{}, fmt.Errorf("%w: column %q: %v", ErrMalformedReport, col.Name, err)
		}
		out[i] = v
	}
	return Row{cells: out}, nil
}

func normalize(t ColumnType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case ColumnText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case ColumnInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case ColumnDecimal, ColumnCurrency:
		switch n := v.(type) {
		case decimal.Decimal:
			return n, nil
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, fmt.Errorf("%v has no decimal value", n)
			}
			return decimal.NewFromFloat(n), nil
		case float32:
			if f := float64(n); math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%v has no decimal value", n)
			}
			return decimal.NewFromFloat32(n), nil
		case int:
			return decimal.NewFromInt(int64(n)), nil
		case int64:
			return decimal.NewFromInt(n), nil
		}
	case ColumnDate:
		if ts, ok := v.(time.Time); ok {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("value of type %T is not compatible with %s", v, t)
}
