package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExportMetrics tracks export outcomes.
//
// Metrics:
//   - <ns>_exports_total: exports by format and status
//   - <ns>_export_duration_seconds: time spent producing an artifact
//   - <ns>_artifact_size_bytes: size of produced artifacts
type ExportMetrics struct {
	registry *prometheus.Registry

	exportsTotal   *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	artifactBytes  *prometheus.HistogramVec
}

func NewExportMetrics(namespace string, registry *prometheus.Registry) *ExportMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "report_export"
	}

	m := &ExportMetrics{
		registry: registry,
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of export requests",
			},
			[]string{"format", "status"},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Duration of export generation in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"format"},
		),
		artifactBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "artifact_size_bytes",
				Help:      "Size of produced artifacts in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
			[]string{"format"},
		),
	}

	registry.MustRegister(m.exportsTotal, m.exportDuration, m.artifactBytes)
	return m
}

// Status maps an export error to a low-cardinality label value.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, domain.ErrUnsupportedPaperSize):
		return "unsupported_paper_size"
	case errors.Is(err, domain.ErrMalformedReport):
		return "malformed_report"
	case errors.Is(err, domain.ErrExport):
		return "export_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}

func (m *ExportMetrics) Record(format domain.Format, err error, duration time.Duration, size int) {
	m.exportsTotal.WithLabelValues(string(format), Status(err)).Inc()
	m.exportDuration.WithLabelValues(string(format)).Observe(duration.Seconds())
	if err == nil {
		m.artifactBytes.WithLabelValues(string(format)).Observe(float64(size))
	}
}

// Instrument wraps a producer so that every call is recorded.
func (m *ExportMetrics) Instrument(next export.Producer) export.Producer {
	return &instrumented{next: next, metrics: m}
}

func (m *ExportMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type instrumented struct {
	next    export.Producer
	metrics *ExportMetrics
}

func (p *instrumented) Produce(
	ctx context.Context,
	report *domain.TabularReport,
	config domain.RenderConfiguration,
) (*export.Artifact, error) {
	start := time.Now()
	artifact, err := p.next.Produce(ctx, report, config)

	size := 0
	if artifact != nil {
		size = len(artifact.Content)
	}
	p.metrics.Record(config.Format, err, time.Since(start), size)
	return artifact, err
}
