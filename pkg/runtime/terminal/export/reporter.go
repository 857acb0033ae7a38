package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/report-export/pkg/models/domain"
)

type TableConfig struct {
	MinWidth int
	MaxWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MinWidth: 4,
		MaxWidth: 40,
	}
}

// Reporter prints a report to the console as a text table.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type table struct {
	Title      string
	Subtitle   string
	Generated  string
	Header     []string
	Rows       [][]string
	Aggregates [][]string
}

func (c *Reporter) Handle(report *domain.TabularReport) error {
	columns := report.Columns()
	meta := report.Metadata()

	t := table{Title: meta.Title, Subtitle: meta.Subtitle}
	if !meta.GeneratedAt.IsZero() {
		t.Generated = meta.GeneratedAt.Format("2006-01-02 15:04")
	}
	for _, col := range columns {
		t.Header = append(t.Header, col.Name)
	}
	texts := func(row domain.Row) []string {
		out := make([]string, len(columns))
		for i, col := range columns {
			out[i] = domain.CellText(col, row.Cell(i))
		}
		return out
	}
	for _, row := range report.Rows() {
		t.Rows = append(t.Rows, texts(row))
	}
	for _, agg := range report.Aggregates() {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = agg.Text(col, i)
		}
		t.Aggregates = append(t.Aggregates, cells)
	}

	widths := c.widths(t)
	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			parts := make([]string, len(cells))
			for i, cell := range cells {
				cell = c.clip(cell, widths[i])
				pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
				if columns[i].Type.Numeric() {
					parts[i] = pad + cell
				} else {
					parts[i] = cell + pad
				}
			}
			return "| " + strings.Join(parts, " | ") + " |"
		},
		"separator": func(fill string) string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strings.Repeat(fill, w+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
	}

	tmpl := `
{{.Title}}
{{if .Subtitle}}{{.Subtitle}}
{{end}}{{if .Generated}}Generated on: {{.Generated}}
{{end}}
{{separator "-"}}
{{formatRow .Header}}
{{separator "-"}}
{{range .Rows}}{{formatRow .}}
{{end}}{{if .Aggregates}}{{separator "="}}
{{range .Aggregates}}{{formatRow .}}
{{end}}{{end}}{{separator "-"}}
`

	tpl, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return tpl.Execute(c.writer, t)
}

func (c *Reporter) widths(t table) []int {
	widths := make([]int, len(t.Header))
	grow := func(cells []string) {
		for i, cell := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	grow(t.Header)
	for _, row := range t.Rows {
		grow(row)
	}
	for _, row := range t.Aggregates {
		grow(row)
	}
	for i := range widths {
		widths[i] = min(max(widths[i], c.config.MinWidth), c.config.MaxWidth)
	}
	return widths
}

func (c *Reporter) clip(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "~"
}
