package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/de-tools/report-export/pkg/export/geometry"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/jung-kurt/gofpdf"
)

// Exporter renders a report as a paginated PDF table.
type Exporter struct {
	fonts *FontMetrics
}

func NewExporter() *Exporter {
	return &Exporter{fonts: Metrics()}
}

// Export lays out and encodes the report in memory. Nothing is returned
// unless the whole document was produced.
func (e *Exporter) Export(report *domain.TabularReport, g geometry.PageGeometry) ([]byte, error) {
	layout, err := NewLayout(report, g)
	if err != nil {
		return nil, domain.NewExportError(domain.FormatPDF, err)
	}

	out, err := e.render(layout, report.Metadata())
	if err != nil {
		return nil, domain.NewExportError(domain.FormatPDF, err)
	}
	return out, nil
}

func (e *Exporter) render(layout *Layout, meta domain.Metadata) ([]byte, error) {
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: layout.Geometry.WidthPt, Ht: layout.Geometry.HeightPt},
	})

	// Fixed document dates keep the output byte-identical across runs.
	stamp := meta.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Unix(0, 0).UTC()
	}
	doc.SetCreationDate(stamp)
	doc.SetModificationDate(stamp)
	doc.SetCatalogSort(true)
	doc.SetTitle(meta.Title, true)
	doc.SetCreator("report-export", true)

	doc.SetMargins(marginPt, marginPt, marginPt)
	doc.SetAutoPageBreak(false, 0)
	doc.SetLineWidth(0.5)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetFont(fontFamily, "", metaSizePt)
		doc.SetXY(marginPt, layout.Geometry.HeightPt-marginPt-footerPt+6)
		doc.CellFormat(layout.Geometry.WidthPt-2*marginPt, metaHeightPt,
			fmt.Sprintf("Page %d of {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	for _, page := range layout.Pages {
		doc.AddPage()
		e.drawHeader(doc, layout)
		e.drawColumnHeader(doc, layout)

		y := layout.TableTop() + lineHeightPt
		for _, line := range page.Lines {
			e.drawLine(doc, layout, line, y)
			y += lineHeightPt
		}

		if doc.Err() {
			return nil, fmt.Errorf("failed to draw page %d: %w", page.Number, doc.Error())
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) drawHeader(doc *gofpdf.Fpdf, layout *Layout) {
	width := layout.Geometry.WidthPt - 2*marginPt
	doc.SetXY(marginPt, marginPt)

	doc.SetFont(fontFamily, styleBold, titleSizePt)
	doc.CellFormat(width, titleHeightPt, e.fonts.Fit(e.fonts.Translate(layout.Title), true, titleSizePt, width),
		"", 1, "C", false, 0, "")

	doc.SetFont(fontFamily, "", metaSizePt)
	for _, text := range []string{layout.Subtitle, layout.Generated} {
		if text == "" {
			continue
		}
		doc.SetX(marginPt)
		doc.CellFormat(width, metaHeightPt, e.fonts.Fit(e.fonts.Translate(text), false, metaSizePt, width),
			"", 1, "L", false, 0, "")
	}
}

func (e *Exporter) drawColumnHeader(doc *gofpdf.Fpdf, layout *Layout) {
	doc.SetFont(fontFamily, styleBold, fontSizePt)
	doc.SetFillColor(221, 221, 221)
	doc.SetDrawColor(0, 0, 0)

	y := layout.TableTop()
	for _, col := range layout.Columns {
		doc.SetXY(col.X, y)
		doc.CellFormat(col.Width, lineHeightPt, e.cellText(col.Name, true, col.Width), "1", 0, col.Align, true, 0, "")
	}
}

func (e *Exporter) drawLine(doc *gofpdf.Fpdf, layout *Layout, line Line, y float64) {
	style := ""
	if line.Emphasized {
		style = styleBold
		doc.SetFillColor(242, 242, 242)

		last := layout.Columns[len(layout.Columns)-1]
		doc.SetLineWidth(1.5)
		doc.Line(marginPt, y, last.X+last.Width, y)
		doc.SetLineWidth(0.5)
	}
	doc.SetFont(fontFamily, style, fontSizePt)

	for i, col := range layout.Columns {
		doc.SetXY(col.X, y)
		text := e.cellText(line.Cells[i], line.Emphasized, col.Width)
		doc.CellFormat(col.Width, lineHeightPt, text, "1", 0, col.Align, line.Emphasized, 0, "")
	}
}

// cellText is the text drawn into a table cell. Only the drawing is clipped;
// the layout keeps the full value.
func (e *Exporter) cellText(text string, bold bool, width float64) string {
	return e.fonts.Fit(e.fonts.Translate(text), bold, fontSizePt, width-2*cellPadPt)
}
