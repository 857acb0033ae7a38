package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/report-export/pkg/adapters"
	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/server"
	"github.com/de-tools/report-export/pkg/services/config"
	"github.com/de-tools/report-export/pkg/telemetry/metrics"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the report export web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a config file (yaml, json or toml); environment variables override it")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	webAPI := server.NewWebAPI(logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Limits:          adapters.MapUploadConfigToLimits(cfg.Upload),
		Defaults:        adapters.MapRenderConfigToExportDefaults(cfg.Render),
		Dependencies: server.Dependencies{
			Producer: export.NewCoordinator(),
			Metrics:  metrics.NewExportMetrics(cfg.Metrics.Namespace, registry),
		},
	})

	logger.Info().
		Int64("max_upload_bytes", cfg.Upload.MaxBytes).
		Str("default_format", cfg.Render.Format).
		Msg("configuration loaded")

	return webAPI.Start()
}
