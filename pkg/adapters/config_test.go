package adapters

import (
	"testing"

	"github.com/de-tools/report-export/pkg/services/config"
	"github.com/de-tools/report-export/pkg/source/file"
	"github.com/stretchr/testify/assert"
)

func TestMapUploadConfigToLimits(t *testing.T) {
	assert.Equal(t, file.DefaultLimits(), MapUploadConfigToLimits(config.UploadConfig{}))

	limits := MapUploadConfigToLimits(config.UploadConfig{MaxBytes: 10, AllowedExtensions: []string{"CSV", "xlsx"}})
	assert.Equal(t, int64(10), limits.MaxBytes)
	assert.Equal(t, []string{"csv", "xlsx"}, limits.AllowedExtensions)
}

func TestMapRenderConfigToExportDefaults(t *testing.T) {
	got := MapRenderConfigToExportDefaults(config.RenderConfig{Format: "csv", PaperSize: "A3", Orientation: "landscape", Delimiter: ";", ReportType: "full_data"})
	assert.Equal(t, "csv", got.Format)
	assert.Equal(t, "A3", got.PaperSize)
	assert.Equal(t, "landscape", got.Orientation)
	assert.Equal(t, ";", got.Delimiter)
	assert.Equal(t, "full_data", got.ReportType)
}
