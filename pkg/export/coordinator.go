package export

import (
	"context"
	"fmt"

	"github.com/de-tools/report-export/pkg/export/delimited"
	"github.com/de-tools/report-export/pkg/export/geometry"
	"github.com/de-tools/report-export/pkg/export/pdf"
	"github.com/de-tools/report-export/pkg/export/spreadsheet"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Artifact is a finished export ready to be delivered.
type Artifact struct {
	Format   domain.Format
	Filename string
	MIMEType string
	Content  []byte
}

// Producer turns a sealed report into an artifact.
type Producer interface {
	Produce(ctx context.Context, report *domain.TabularReport, config domain.RenderConfiguration) (*Artifact, error)
}

// Exporter is one output format. Validate runs before any rendering so a bad
// configuration never reaches the encoder.
type Exporter interface {
	Validate(config domain.RenderConfiguration) error
	Export(report *domain.TabularReport, config domain.RenderConfiguration) ([]byte, error)
}

type fileType struct {
	extension string
	mimeType  string
}

var fileTypes = map[domain.Format]fileType{
	domain.FormatPDF:         {extension: ".pdf", mimeType: "application/pdf"},
	domain.FormatSpreadsheet: {extension: ".xlsx", mimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	domain.FormatDelimited:   {extension: ".csv", mimeType: "text/csv"},
}

var tabSeparated = fileType{extension: ".tsv", mimeType: "text/tab-separated-values"}

// FileType returns the download extension and MIME type of a format.
func FileType(config domain.RenderConfiguration) (extension, mimeType string, ok bool) {
	ft, ok := fileTypes[config.Format]
	if ok && config.Format == domain.FormatDelimited && config.EffectiveDelimiter() == '\t' {
		ft = tabSeparated
	}
	return ft.extension, ft.mimeType, ok
}

// Coordinator validates a render configuration and dispatches to the
// exporter registered for its format.
type Coordinator struct {
	exporters map[domain.Format]Exporter
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		exporters: map[domain.Format]Exporter{
			domain.FormatPDF:         &pdfExporter{pdf.NewExporter()},
			domain.FormatSpreadsheet: &spreadsheetExporter{spreadsheet.NewExporter()},
			domain.FormatDelimited:   &delimitedExporter{delimited.NewExporter()},
		},
	}
}

func (c *Coordinator) Produce(
	ctx context.Context,
	report *domain.TabularReport,
	config domain.RenderConfiguration,
) (*Artifact, error) {
	logger := zerolog.Ctx(ctx).With().Str("format", string(config.Format)).Logger()

	if report == nil {
		return nil, fmt.Errorf("%w: no report", domain.ErrMalformedReport)
	}

	exporter, ok := c.exporters[config.Format]
	extension, mimeType, known := FileType(config)
	if !ok || !known {
		return nil, fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidConfiguration, config.Format)
	}

	if err := exporter.Validate(config); err != nil {
		logger.Debug().Err(err).Msg("render configuration rejected")
		return nil, err
	}

	content, err := exporter.Export(report, config)
	if err != nil {
		logger.Error().Err(err).Msg("export failed")
		return nil, err
	}

	// The export runs to completion; cancellation only stops delivery.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("rows", len(report.Rows())).
		Int("bytes", len(content)).
		Msg("export produced")

	return &Artifact{
		Format:   config.Format,
		Filename: config.EffectiveBaseName() + extension,
		MIMEType: mimeType,
		Content:  content,
	}, nil
}

type pdfExporter struct {
	*pdf.Exporter
}

func (e *pdfExporter) Validate(config domain.RenderConfiguration) error {
	_, err := geometry.Resolve(config.EffectivePaperSize(), config.EffectiveOrientation())
	return err
}

func (e *pdfExporter) Export(report *domain.TabularReport, config domain.RenderConfiguration) ([]byte, error) {
	g, err := geometry.Resolve(config.EffectivePaperSize(), config.EffectiveOrientation())
	if err != nil {
		return nil, err
	}
	return e.Exporter.Export(report, g)
}

type spreadsheetExporter struct {
	*spreadsheet.Exporter
}

func (e *spreadsheetExporter) Validate(domain.RenderConfiguration) error {
	return nil
}

func (e *spreadsheetExporter) Export(report *domain.TabularReport, _ domain.RenderConfiguration) ([]byte, error) {
	return e.Exporter.Export(report)
}

type delimitedExporter struct {
	*delimited.Exporter
}

func (e *delimitedExporter) Validate(config domain.RenderConfiguration) error {
	return delimited.ValidateDelimiter(config.EffectiveDelimiter())
}

func (e *delimitedExporter) Export(report *domain.TabularReport, config domain.RenderConfiguration) ([]byte, error) {
	return e.Exporter.Export(report, config.EffectiveDelimiter())
}
