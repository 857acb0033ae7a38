package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(150<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, "pdf", cfg.Render.Format)
	assert.Equal(t, "A4", cfg.Render.PaperSize)
	assert.Equal(t, "summary", cfg.Render.ReportType)
	assert.Equal(t, "report_export", cfg.Metrics.Namespace)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `server:
  port: "9090"
  shutdown_timeout: 3s
upload:
  max_bytes: 1024
render:
  format: csv
  delimiter: ";"`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("REPORT_EXPORT_RENDER_PAPER_SIZE", "A3")
	t.Setenv("SERVER_HOST", "127.0.0.1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "csv", cfg.Render.Format)
	assert.Equal(t, ";", cfg.Render.Delimiter)
	assert.Equal(t, "A3", cfg.Render.PaperSize)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.ini")
	content := `[local]
driver = duckdb
init_sql = CREATE VIEW sales AS SELECT * FROM read_csv_auto('sales.csv')
init_sql = SET threads = 2

[warehouse]
driver = snowflake
dsn = user:pass@account/db/schema

[broken]
dsn = nowhere
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry, err := NewRegistry(path)
	require.NoError(t, err)
	ctx := context.Background()

	profiles, err := registry.GetProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "local", "warehouse"}, profiles)

	local, err := registry.GetProfile(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, "duckdb", local.Driver)
	assert.Empty(t, local.DSN)
	assert.Len(t, local.InitSQL, 2)

	warehouse, err := registry.GetProfile(ctx, "warehouse")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@account/db/schema", warehouse.DSN)
	assert.Empty(t, warehouse.InitSQL)

	_, err = registry.GetProfile(ctx, "broken")
	assert.ErrorContains(t, err, "no driver")

	_, err = registry.GetProfile(ctx, "missing")
	assert.ErrorContains(t, err, "not found")
}
