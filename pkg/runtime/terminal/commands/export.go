package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/models/domain"
	preview "github.com/de-tools/report-export/pkg/runtime/terminal/export"
	"github.com/de-tools/report-export/pkg/services/batch"
	"github.com/de-tools/report-export/pkg/services/config"
	"github.com/de-tools/report-export/pkg/sink"
	"github.com/de-tools/report-export/pkg/sink/local"
	"github.com/de-tools/report-export/pkg/sink/s3"
	"github.com/de-tools/report-export/pkg/source"
	"github.com/de-tools/report-export/pkg/source/file"
	sqlsource "github.com/de-tools/report-export/pkg/source/sql"
	"github.com/de-tools/report-export/pkg/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ExportCmd struct {
	input       string
	profile     string
	sourcesPath string
	driver      string
	dsn         string
	query       string
	name        string
	initSQL     []string

	reportType  string
	totals      bool
	format      string
	paper       string
	orientation string
	delimiter   string

	outDir     string
	s3Bucket   string
	s3Prefix   string
	awsProfile string
	preview    bool

	producer export.Producer
	reporter *preview.Reporter
	now      func() time.Time
}

func NewExportCmd(producer export.Producer, reporter *preview.Reporter, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	ec := &ExportCmd{producer: producer, reporter: reporter, now: now}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build a report from a file or SQL query and export it",
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.input, "input", "", "CSV or XLSX file to report on")
	cmd.Flags().StringVar(&ec.profile, "profile", "", "Named SQL source from the sources file")
	cmd.Flags().StringVar(&ec.sourcesPath, "sources", DefaultSourcesPath(), "Path to the sources file")
	cmd.Flags().StringVar(&ec.driver, "driver", "", "SQL driver (duckdb, snowflake, databricks)")
	cmd.Flags().StringVar(&ec.dsn, "dsn", "", "SQL data source name")
	cmd.Flags().StringVar(&ec.query, "query", "", "SQL query producing the report rows")
	cmd.Flags().StringVar(&ec.name, "name", "query", "Dataset name used in the title of SQL reports")
	cmd.Flags().StringArrayVar(&ec.initSQL, "init-sql", nil, "Statement to run before the query (repeatable)")

	cmd.Flags().StringVar(&ec.reportType, "report", "summary", "Report type (full_data or summary)")
	cmd.Flags().BoolVar(&ec.totals, "totals", false, "Append a Total row to full data reports")
	cmd.Flags().StringVar(&ec.format, "format", "pdf", "Output formats, comma separated (pdf, excel, csv)")
	cmd.Flags().StringVar(&ec.paper, "paper", "A4", "PDF paper size (A1-A4)")
	cmd.Flags().StringVar(&ec.orientation, "orientation", "portrait", "PDF orientation (portrait or landscape)")
	cmd.Flags().StringVar(&ec.delimiter, "delimiter", ",", "Field delimiter for delimited output (\"tab\" for TSV)")

	cmd.Flags().StringVar(&ec.outDir, "out", ".", "Directory to write the artifact to")
	cmd.Flags().StringVar(&ec.s3Bucket, "s3-bucket", "", "Upload the artifact to this S3 bucket instead")
	cmd.Flags().StringVar(&ec.s3Prefix, "s3-prefix", "", "Key prefix for S3 uploads")
	cmd.Flags().StringVar(&ec.awsProfile, "aws-profile", "", "AWS shared config profile")
	cmd.Flags().BoolVar(&ec.preview, "preview", false, "Print the report as a table instead of exporting it")

	cmd.MarkFlagsMutuallyExclusive("input", "query")
	cmd.MarkFlagsMutuallyExclusive("profile", "driver")

	return cmd
}

// DefaultSourcesPath is $HOME/.report-export/sources.ini.
func DefaultSourcesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sources.ini"
	}
	return filepath.Join(home, ".report-export", "sources.ini")
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ds, err := ec.dataset(ctx)
	if err != nil {
		return err
	}

	kind, err := source.ParseKind(ec.reportType)
	if err != nil {
		return err
	}
	report, err := source.Build(ds, source.Options{Kind: kind, Totals: ec.totals, GeneratedAt: ec.now()})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if ec.preview {
		return ec.reporter.Handle(report)
	}

	configs, err := ec.renderConfigs(source.BaseName(ds.Name, kind))
	if err != nil {
		return err
	}

	target, err := ec.sink(ctx)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(ec.producer, target, configs, batch.RunnerConfig{})
	if _, err := runner.Run(ctx, report); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	for p := range runner.Progress() {
		zerolog.Ctx(ctx).Debug().Str("format", string(p.Format)).Dur("elapsed", p.Elapsed).Msg("artifact delivered")
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", p.Location)
	}
	return nil
}

func (ec *ExportCmd) dataset(ctx context.Context) (*source.Dataset, error) {
	switch {
	case ec.input != "":
		f, err := os.Open(ec.input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		return file.Read(ec.input, f, file.DefaultLimits())

	case ec.query != "":
		driver, dsn, initSQL, err := ec.connection(ctx)
		if err != nil {
			return nil, err
		}
		db, err := store.Open(ctx, driver, dsn, initSQL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := db.Close(); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close sql source")
			}
		}()
		return sqlsource.Query(ctx, db, ec.name, ec.query)
	}
	return nil, fmt.Errorf("either --input or --query is required")
}

func (ec *ExportCmd) connection(ctx context.Context) (driver, dsn string, initSQL []string, err error) {
	if ec.profile == "" {
		if ec.driver == "" {
			return "", "", nil, fmt.Errorf("--driver or --profile is required with --query")
		}
		return ec.driver, ec.dsn, ec.initSQL, nil
	}

	registry, err := config.NewRegistry(ec.sourcesPath)
	if err != nil {
		return "", "", nil, err
	}
	profile, err := registry.GetProfile(ctx, ec.profile)
	if err != nil {
		return "", "", nil, err
	}
	dsn = profile.DSN
	if ec.dsn != "" {
		dsn = ec.dsn
	}
	return profile.Driver, dsn, append(profile.InitSQL, ec.initSQL...), nil
}

// renderConfigs returns one configuration per requested format.
func (ec *ExportCmd) renderConfigs(baseName string) ([]domain.RenderConfiguration, error) {
	orientation, err := domain.ParseOrientation(ec.orientation)
	if err != nil {
		return nil, err
	}
	delimiter, err := domain.ParseDelimiter(ec.delimiter)
	if err != nil {
		return nil, err
	}

	var configs []domain.RenderConfiguration
	seen := map[domain.Format]bool{}
	for _, name := range strings.Split(ec.format, ",") {
		format, err := domain.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true

		configs = append(configs, domain.RenderConfiguration{
			Format:      format,
			PaperSize:   domain.PaperSize(strings.ToUpper(strings.TrimSpace(ec.paper))),
			Orientation: orientation,
			Delimiter:   delimiter,
			BaseName:    baseName,
		})
	}
	return configs, nil
}

func (ec *ExportCmd) sink(ctx context.Context) (sink.Sink, error) {
	if ec.s3Bucket == "" {
		return local.NewWriter(ec.outDir), nil
	}

	cfg, err := s3.LoadConfig(ctx, ec.awsProfile)
	if err != nil {
		return nil, err
	}
	return s3.NewUploader(cfg, ec.s3Bucket, ec.s3Prefix)
}
