package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/report-export/pkg/export/geometry"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var a4Portrait = geometry.PageGeometry{WidthPt: 595, HeightPt: 842}

func salesReport(t *testing.T, rows int) *domain.TabularReport {
	t.Helper()

	b, err := domain.NewBuilder(domain.Metadata{
		Title:       "Sales",
		Subtitle:    "Region: North",
		GeneratedAt: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
	},
		domain.Column{Name: "Name", Type: domain.ColumnText, Hint: domain.FormatHint{Width: 2}},
		domain.Column{Name: "Sales", Type: domain.ColumnCurrency, Hint: domain.FormatHint{CurrencySymbol: "$"}},
	)
	require.NoError(t, err)

	for i := 0; i < rows; i++ {
		require.NoError(t, b.AddRow(fmt.Sprintf("customer-%04d", i), float64(i)+0.5))
	}
	require.NoError(t, b.AddAggregate("Total", "Total", float64(rows*rows)/2))

	report, err := b.Seal()
	require.NoError(t, err)
	return report
}

func TestNewLayout_SinglePage(t *testing.T) {
	report := salesReport(t, 2)

	layout, err := NewLayout(report, a4Portrait)
	require.NoError(t, err)

	require.Len(t, layout.Pages, 1)
	lines := layout.Pages[0].Lines
	require.Len(t, lines, 3)

	last := lines[len(lines)-1]
	assert.Equal(t, LineAggregate, last.Kind)
	assert.True(t, last.Emphasized)
	assert.Equal(t, []string{"Total", "$2.00"}, last.Cells)

	assert.False(t, lines[0].Emphasized)
	assert.Equal(t, []string{"customer-0000", "$0.50"}, lines[0].Cells)
	assert.Equal(t, "Generated on: 2024-03-05 09:30", layout.Generated)
}

func TestNewLayout_Columns(t *testing.T) {
	layout, err := NewLayout(salesReport(t, 1), a4Portrait)
	require.NoError(t, err)

	require.Len(t, layout.Columns, 2)
	name, sales := layout.Columns[0], layout.Columns[1]

	usable := a4Portrait.WidthPt - 2*marginPt
	assert.InDelta(t, usable*2/3, name.Width, 1e-9)
	assert.InDelta(t, usable/3, sales.Width, 1e-9)
	assert.InDelta(t, marginPt, name.X, 1e-9)
	assert.InDelta(t, marginPt+name.Width, sales.X, 1e-9)

	assert.Equal(t, AlignLeft, name.Align)
	assert.Equal(t, AlignRight, sales.Align)
}

func TestNewLayout_AlignmentFollowsColumnType(t *testing.T) {
	b, err := domain.NewBuilder(domain.Metadata{Title: "types"},
		domain.Column{Name: "t", Type: domain.ColumnText},
		domain.Column{Name: "i", Type: domain.ColumnInteger},
		domain.Column{Name: "d", Type: domain.ColumnDecimal},
		domain.Column{Name: "c", Type: domain.ColumnCurrency},
		domain.Column{Name: "day", Type: domain.ColumnDate},
	)
	require.NoError(t, err)
	report, err := b.Seal()
	require.NoError(t, err)

	layout, err := NewLayout(report, a4Portrait)
	require.NoError(t, err)

	var aligns []string
	for _, col := range layout.Columns {
		aligns = append(aligns, col.Align)
	}
	assert.Equal(t, []string{AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft}, aligns)
	require.Len(t, layout.Pages, 1)
	assert.Empty(t, layout.Pages[0].Lines)
}

func TestNewLayout_Pagination(t *testing.T) {
	sizes := []domain.PaperSize{domain.PaperA1, domain.PaperA2, domain.PaperA3, domain.PaperA4}
	orientations := []domain.Orientation{domain.Portrait, domain.Landscape}

	for _, rows := range []int{0, 1, 47, 48, 49, 250, 1000} {
		report := salesReport(t, rows)

		for _, size := range sizes {
			for _, o := range orientations {
				g, err := geometry.Resolve(size, o)
				require.NoError(t, err)

				layout, err := NewLayout(report, g)
				require.NoError(t, err)

				var dataSeen []int
				aggregates := 0
				for n, page := range layout.Pages {
					assert.Equal(t, n+1, page.Number)
					assert.NotEmpty(t, page.Lines, "page %d is empty", page.Number)

					used := layout.TableTop() + lineHeightPt*float64(len(page.Lines)+1)
					assert.LessOrEqual(t, used, g.HeightPt-marginPt-footerPt)

					for _, line := range page.Lines {
						switch line.Kind {
						case LineData:
							require.Zero(t, aggregates, "data row after aggregate")
							dataSeen = append(dataSeen, line.Index)
						case LineAggregate:
							aggregates++
						}
					}
				}

				require.Len(t, dataSeen, rows, "%s/%s", size, o)
				for i, idx := range dataSeen {
					require.Equal(t, i, idx)
				}
				assert.Equal(t, 1, aggregates)
			}
		}
	}
}

func TestNewLayout_PageBreakRepeatsCapacity(t *testing.T) {
	layout, err := NewLayout(salesReport(t, 200), a4Portrait)
	require.NoError(t, err)
	require.Greater(t, len(layout.Pages), 1)

	capacity := len(layout.Pages[0].Lines)
	for _, page := range layout.Pages[:len(layout.Pages)-1] {
		assert.Equal(t, capacity, len(page.Lines))
	}
	assert.Equal(t, (201+capacity-1)/capacity, len(layout.Pages))
}

func TestNewLayout_TooSmall(t *testing.T) {
	_, err := NewLayout(salesReport(t, 1), geometry.PageGeometry{WidthPt: 595, HeightPt: 100})
	assert.Error(t, err)

	out, err := NewExporter().Export(salesReport(t, 1), geometry.PageGeometry{WidthPt: 595, HeightPt: 100})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrExport)

	var exportErr *domain.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, domain.FormatPDF, exportErr.Format)
}

func TestNewLayout_TooManyColumns(t *testing.T) {
	var cols []domain.Column
	for i := 0; i < 60; i++ {
		cols = append(cols, domain.Column{Name: fmt.Sprintf("c%d", i), Type: domain.ColumnText})
	}
	b, err := domain.NewBuilder(domain.Metadata{}, cols...)
	require.NoError(t, err)
	report, err := b.Seal()
	require.NoError(t, err)

	_, err = NewLayout(report, a4Portrait)
	assert.Error(t, err)
}

func TestExporter_Export(t *testing.T) {
	report := salesReport(t, 120)

	out, err := NewExporter().Export(report, a4Portrait)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.HasSuffix(bytes.TrimSpace(out), []byte("%%EOF")))
}

func TestExporter_Deterministic(t *testing.T) {
	report := salesReport(t, 60)

	first, err := NewExporter().Export(report, a4Portrait)
	require.NoError(t, err)
	second, err := NewExporter().Export(report, a4Portrait)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExporter_Concurrent(t *testing.T) {
	report := salesReport(t, 30)
	want, err := NewExporter().Export(report, a4Portrait)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = NewExporter().Export(report, a4Portrait)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestFontMetrics_Translate(t *testing.T) {
	m := Metrics()

	assert.Equal(t, "plain", m.Translate("plain"))
	assert.Equal(t, "caf\xe9 \x80 10", m.Translate("café € 10"))
	assert.Equal(t, "\x93quoted\x94", m.Translate("\u201cquoted\u201d"))
	assert.Equal(t, "a.b", m.Translate("a漢b"))
}

// Run with -race: every export translates through the shared metrics.
func TestFontMetrics_ConcurrentTranslate(t *testing.T) {
	m := Metrics()
	inputs := []string{"café", "Ünit €", "naïve – dash", "plain ascii"}
	want := make([]string, len(inputs))
	for i, s := range inputs {
		want[i] = m.Translate(s)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 2000; n++ {
				i := (g + n) % len(inputs)
				if got := m.Translate(inputs[i]); got != want[i] {
					t.Errorf("Translate(%q) = %q, want %q", inputs[i], got, want[i])
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestNewLayout_KeepsFullCellText(t *testing.T) {
	long := "a customer name that is far too long to fit into its column on the page"
	b, err := domain.NewBuilder(domain.Metadata{Title: "clip"},
		domain.Column{Name: "Name", Type: domain.ColumnText},
		domain.Column{Name: "A", Type: domain.ColumnText},
		domain.Column{Name: "B", Type: domain.ColumnText},
		domain.Column{Name: "C", Type: domain.ColumnText},
	)
	require.NoError(t, err)
	require.NoError(t, b.AddRow(long, "x", "y", "z"))
	report, err := b.Seal()
	require.NoError(t, err)

	layout, err := NewLayout(report, a4Portrait)
	require.NoError(t, err)
	line := layout.Pages[0].Lines[0]
	assert.Equal(t, long, line.Cells[0])
	assert.Equal(t, domain.CellText(report.Column(0), report.Rows()[0].Cell(0)), line.Cells[0])

	e := NewExporter()
	drawn := e.cellText(line.Cells[0], false, layout.Columns[0].Width)
	assert.NotEqual(t, long, drawn)
	assert.True(t, strings.HasSuffix(drawn, "..."), drawn)
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(drawn, "...")), drawn)
	assert.Equal(t, "x", e.cellText(line.Cells[1], false, layout.Columns[1].Width))
}

func TestNewLayout_AggregateLabelInEmptyFirstCell(t *testing.T) {
	b, err := domain.NewBuilder(domain.Metadata{Title: "numbers"},
		domain.Column{Name: "Units", Type: domain.ColumnInteger},
		domain.Column{Name: "Sales", Type: domain.ColumnDecimal},
	)
	require.NoError(t, err)
	require.NoError(t, b.AddRow(1, 2.5))
	require.NoError(t, b.AddAggregate("Total", nil, 2.5))
	report, err := b.Seal()
	require.NoError(t, err)

	layout, err := NewLayout(report, a4Portrait)
	require.NoError(t, err)
	lines := layout.Pages[0].Lines
	assert.Equal(t, []string{"Total", "2.50"}, lines[len(lines)-1].Cells)
}

func TestFontMetrics_Fit(t *testing.T) {
	m := Metrics()
	assert.Same(t, m, Metrics())

	assert.Greater(t, m.Width("W", false, fontSizePt), m.Width("i", false, fontSizePt))
	assert.Greater(t, m.Width("abc", true, fontSizePt), m.Width("abc", false, fontSizePt))

	assert.Equal(t, "short", m.Fit("short", false, fontSizePt, 100))

	long := "a very long value that cannot fit into a narrow column"
	fitted := m.Fit(long, false, fontSizePt, 60)
	assert.NotEqual(t, long, fitted)
	assert.Contains(t, fitted, "...")
	assert.LessOrEqual(t, m.Width(fitted, false, fontSizePt), 60.0)
}
