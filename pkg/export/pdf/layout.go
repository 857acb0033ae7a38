package pdf

import (
	"fmt"

	"github.com/de-tools/report-export/pkg/export/geometry"
	"github.com/de-tools/report-export/pkg/models/domain"
)

const (
	marginPt      = 36.0
	fontSizePt    = 8.0
	lineHeightPt  = 14.0
	titleSizePt   = 14.0
	titleHeightPt = 20.0
	metaSizePt    = 9.0
	metaHeightPt  = 12.0
	headerGapPt   = 8.0
	footerPt      = 20.0
	cellPadPt     = 3.0
	minColumnPt   = 12.0
)

const (
	AlignLeft  = "L"
	AlignRight = "R"
)

// ColumnLayout is the horizontal placement of one report column.
type ColumnLayout struct {
	Name  string
	X     float64
	Width float64
	Align string
}

type LineKind int

const (
	LineData LineKind = iota
	LineAggregate
)

// Line is one table row on a page. Index points into the report's data rows
// or aggregates depending on Kind.
type Line struct {
	Kind       LineKind
	Index      int
	Cells      []string
	Emphasized bool
}

type Page struct {
	Number int
	Lines  []Line
}

// Layout is the complete page plan of a report at a given geometry.
type Layout struct {
	Geometry  geometry.PageGeometry
	Title     string
	Subtitle  string
	Generated string
	Columns   []ColumnLayout
	Pages     []Page

	headerHeight float64
}

// TableTop is the y coordinate of the column header row on every page.
func (l *Layout) TableTop() float64 {
	return marginPt + l.headerHeight
}

// NewLayout distributes the report's lines over pages. Every data row and
// aggregate appears exactly once, in order; the column header repeats on
// each page.
func NewLayout(report *domain.TabularReport, g geometry.PageGeometry) (*Layout, error) {
	meta := report.Metadata()
	l := &Layout{
		Geometry: g,
		Title:    meta.Title,
		Subtitle: meta.Subtitle,
	}
	if !meta.GeneratedAt.IsZero() {
		l.Generated = "Generated on: " + meta.GeneratedAt.Format("2006-01-02 15:04")
	}

	l.headerHeight = titleHeightPt + headerGapPt
	if l.Subtitle != "" {
		l.headerHeight += metaHeightPt
	}
	if l.Generated != "" {
		l.headerHeight += metaHeightPt
	}

	columns, err := layoutColumns(report.Columns(), g.WidthPt-2*marginPt)
	if err != nil {
		return nil, err
	}
	l.Columns = columns

	bottom := g.HeightPt - marginPt - footerPt
	firstLineY := l.TableTop() + lineHeightPt
	if firstLineY+lineHeightPt > bottom {
		return nil, fmt.Errorf("page height %.0fpt leaves no room for table rows", g.HeightPt)
	}

	page := Page{Number: 1}
	y := firstLineY
	place := func(line Line) {
		if y+lineHeightPt > bottom {
			l.Pages = append(l.Pages, page)
			page = Page{Number: page.Number + 1}
			y = firstLineY
		}
		page.Lines = append(page.Lines, line)
		y += lineHeightPt
	}

	for i, row := range report.Rows() {
		place(Line{Kind: LineData, Index: i, Cells: cellTexts(report, row)})
	}
	for i, agg := range report.Aggregates() {
		place(Line{Kind: LineAggregate, Index: i, Cells: aggregateTexts(report, agg), Emphasized: true})
	}
	l.Pages = append(l.Pages, page)

	return l, nil
}

func layoutColumns(columns []domain.Column, usable float64) ([]ColumnLayout, error) {
	var total float64
	for _, col := range columns {
		total += col.Hint.RelativeWidth()
	}

	out := make([]ColumnLayout, len(columns))
	x := marginPt
	for i, col := range columns {
		width := usable * col.Hint.RelativeWidth() / total
		if width < minColumnPt {
			return nil, fmt.Errorf("column %q would be %.1fpt wide, page is too narrow for %d columns",
				col.Name, width, len(columns))
		}

		align := AlignLeft
		if col.Type.Numeric() {
			align = AlignRight
		}
		out[i] = ColumnLayout{Name: col.Name, X: x, Width: width, Align: align}
		x += width
	}
	return out, nil
}

func aggregateTexts(report *domain.TabularReport, agg domain.AggregateRow) []string {
	out := make([]string, report.ColumnCount())
	for i := range out {
		out[i] = agg.Text(report.Column(i), i)
	}
	return out
}

func cellTexts(report *domain.TabularReport, row domain.Row) []string {
	out := make([]string, report.ColumnCount())
	for i := range out {
		out[i] = domain.CellText(report.Column(i), row.Cell(i))
	}
	return out
}
