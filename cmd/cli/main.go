package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/runtime/terminal"
	"github.com/rs/zerolog"

	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/snowflakedb/gosnowflake"
)

func main() {
	level := zerolog.InfoLevel
	if os.Getenv("REPORT_EXPORT_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := terminal.NewCLI(terminal.Options{
		Producer: export.NewCoordinator(),
		Output:   os.Stdout,
	})

	if err := cli.Execute(logger.WithContext(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
