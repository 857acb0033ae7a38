package api

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ExportOptions lists the values accepted by the export endpoint and the
// defaults applied when a field is omitted.
type ExportOptions struct {
	ReportTypes  []string       `json:"report_types"`
	Formats      []string       `json:"output_formats"`
	PaperSizes   []string       `json:"page_sizes"`
	Orientations []string       `json:"orientations"`
	MaxFileBytes int64          `json:"max_file_bytes"`
	Extensions   []string       `json:"allowed_extensions"`
	Defaults     ExportDefaults `json:"defaults"`
}

type ExportDefaults struct {
	ReportType  string `json:"report_type"`
	Format      string `json:"output_format"`
	PaperSize   string `json:"page_size"`
	Orientation string `json:"orientation"`
	Delimiter   string `json:"delimiter"`
}
