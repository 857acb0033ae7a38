package adapters

import (
	"github.com/de-tools/report-export/pkg/models/api"
	"github.com/de-tools/report-export/pkg/services/config"
	"github.com/de-tools/report-export/pkg/source/file"
)

func MapRenderConfigToExportDefaults(cfg config.RenderConfig) api.ExportDefaults {
	return api.ExportDefaults{
		ReportType:  cfg.ReportType,
		Format:      cfg.Format,
		PaperSize:   cfg.PaperSize,
		Orientation: cfg.Orientation,
		Delimiter:   cfg.Delimiter,
	}
}

func MapUploadConfigToLimits(cfg config.UploadConfig) file.Limits {
	limits := file.DefaultLimits()
	if cfg.MaxBytes > 0 {
		limits.MaxBytes = cfg.MaxBytes
	}
	if len(cfg.AllowedExtensions) > 0 {
		limits.AllowedExtensions = make([]string, len(cfg.AllowedExtensions))
		for i, ext := range cfg.AllowedExtensions {
			limits.AllowedExtensions[i] = file.Extension("." + ext)
		}
	}
	return limits
}
