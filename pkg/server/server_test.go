package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/report-export/pkg/models/api"
	"github.com/de-tools/report-export/pkg/source/file"
	"github.com/de-tools/report-export/pkg/telemetry/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("region,units\nnorth,1\nsouth,2\n"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Limits:          file.DefaultLimits(),
		Defaults: api.ExportDefaults{
			ReportType:  "summary",
			Format:      "pdf",
			PaperSize:   "A4",
			Orientation: "portrait",
			Delimiter:   ",",
		},
		Dependencies: Dependencies{
			Metrics: metrics.NewExportMetrics("report_export", prometheus.NewRegistry()),
			Now: func() time.Time {
				return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
			},
		},
	}
	router := ConfigureRouter(logger, config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	t.Run("Healthz", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var health api.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("CreateExport", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"report_type": "full_data", "output_format": "csv"})
		resp, err := http.Post(testServer.URL+"/api/v1/exports", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="sales_full_data.csv"`, resp.Header.Get("Content-Disposition"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "region,units\nnorth,1\nsouth,2\n", string(data))
	})

	t.Run("CreateExport_UnsupportedPaper", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"page_size": "A5"})
		resp, err := http.Post(testServer.URL+"/api/v1/exports", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var apiErr api.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
		assert.Contains(t, apiErr.Error, "unsupported paper size")
	})

	t.Run("Options", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/exports/options")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var opts api.ExportOptions
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&opts))
		assert.Equal(t, "pdf", opts.Defaults.Format)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		text := string(data)
		assert.True(t, strings.Contains(text, `report_export_exports_total{format="DELIMITED",status="ok"} 1`), text)
		assert.True(t, strings.Contains(text, `report_export_exports_total{format="PDF",status="unsupported_paper_size"} 1`), text)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/exports")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestNewWebAPI_DefaultShutdownTimeout(t *testing.T) {
	w := NewWebAPI(zerolog.Nop(), Config{Addr: ":0"})
	assert.Equal(t, defaultShutdownTimeout, w.shutdownTimeout)
	assert.Equal(t, ":0", w.server.Addr)
}
