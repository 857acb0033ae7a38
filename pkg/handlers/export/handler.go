package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/models/api"
	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/de-tools/report-export/pkg/source"
	"github.com/de-tools/report-export/pkg/source/file"
	"github.com/rs/zerolog"
)

const (
	maxMemory    = 32 << 20
	formOverhead = 1 << 20
)

type Handler struct {
	producer export.Producer
	limits   file.Limits
	defaults api.ExportDefaults
	now      func() time.Time
}

func NewHandler(producer export.Producer, limits file.Limits, defaults api.ExportDefaults, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		producer: producer,
		limits:   limits,
		defaults: defaults,
		now:      now,
	}
}

// CreateExport builds a report from an uploaded file and returns the
// rendered artifact as an attachment.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.limits.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, fmt.Errorf("%w: max size is %d MB", source.ErrFileTooLarge, h.limits.MaxBytes>>20))
			return
		}
		writeError(ctx, w, fmt.Errorf("%w: invalid multipart form: %v", source.ErrInvalidInput, err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn().Err(err).Msg("failed to remove multipart files")
		}
	}()

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: no file provided", source.ErrInvalidInput))
		return
	}
	defer upload.Close()

	ds, err := file.Read(header.Filename, upload, h.limits)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	kind, err := source.ParseKind(h.value(r, "report_type", h.defaults.ReportType))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	totals := false
	if v := r.FormValue("totals"); v != "" {
		if totals, err = strconv.ParseBool(v); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: totals must be a boolean", domain.ErrInvalidConfiguration))
			return
		}
	}

	config, err := h.renderConfig(r, source.BaseName(ds.Name, kind))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := source.Build(ds, source.Options{Kind: kind, Totals: totals, GeneratedAt: h.now()})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	artifact, err := h.producer.Produce(ctx, report, config)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	logger.Info().
		Str("file", header.Filename).
		Str("report_type", string(kind)).
		Str("format", string(artifact.Format)).
		Int("bytes", len(artifact.Content)).
		Msg("export generated")

	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Content); err != nil {
		logger.Error().Err(err).Msg("failed to write artifact")
	}
}

func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, api.ExportOptions{
		ReportTypes:  []string{string(source.KindFullData), string(source.KindSummary)},
		Formats:      []string{"pdf", "excel", "csv"},
		PaperSizes:   []string{string(domain.PaperA1), string(domain.PaperA2), string(domain.PaperA3), string(domain.PaperA4)},
		Orientations: []string{"portrait", "landscape"},
		MaxFileBytes: h.limits.MaxBytes,
		Extensions:   h.limits.AllowedExtensions,
		Defaults:     h.defaults,
	})
}

func (h *Handler) renderConfig(r *http.Request, baseName string) (domain.RenderConfiguration, error) {
	format, err := domain.ParseFormat(h.value(r, "output_format", h.defaults.Format))
	if err != nil {
		return domain.RenderConfiguration{}, err
	}
	orientation, err := domain.ParseOrientation(h.value(r, "orientation", h.defaults.Orientation))
	if err != nil {
		return domain.RenderConfiguration{}, err
	}
	delimiter, err := domain.ParseDelimiter(h.value(r, "delimiter", h.defaults.Delimiter))
	if err != nil {
		return domain.RenderConfiguration{}, err
	}

	return domain.RenderConfiguration{
		Format:      format,
		PaperSize:   domain.PaperSize(strings.ToUpper(h.value(r, "page_size", h.defaults.PaperSize))),
		Orientation: orientation,
		Delimiter:   delimiter,
		BaseName:    baseName,
	}, nil
}

func (h *Handler) value(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}

// StatusCode maps an error to the HTTP status returned to the client.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, source.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrUnsupportedPaperSize),
		errors.Is(err, domain.ErrMalformedReport),
		errors.Is(err, source.ErrUnsupportedFile),
		errors.Is(err, source.ErrEmptyInput),
		errors.Is(err, source.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(ctx).Error().Err(err).Msg("export request failed")
		message = "failed to generate report"
	} else {
		zerolog.Ctx(ctx).Debug().Err(err).Int("status", status).Msg("export request rejected")
	}
	writeJSON(ctx, w, status, api.ErrorResponse{Error: message})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
