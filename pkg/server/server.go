package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	handlers "github.com/de-tools/report-export/pkg/handlers/export"
	"github.com/de-tools/report-export/pkg/models/api"
	exportmiddleware "github.com/de-tools/report-export/pkg/server/middleware"
	"github.com/de-tools/report-export/pkg/source/file"
	"github.com/de-tools/report-export/pkg/telemetry/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Producer export.Producer
	Metrics  *metrics.ExportMetrics
	Now      func() time.Time
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Limits          file.Limits
	Defaults        api.ExportDefaults
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// ConfigureRouter wires the export routes, health check and metrics
// endpoint.
func ConfigureRouter(logger zerolog.Logger, config Config) *chi.Mux {
	producer := config.Dependencies.Producer
	if producer == nil {
		producer = export.NewCoordinator()
	}
	if config.Dependencies.Metrics != nil {
		producer = config.Dependencies.Metrics.Instrument(producer)
	}
	exportHandler := handlers.NewHandler(producer, config.Limits, config.Defaults, config.Dependencies.Now)

	router := chi.NewRouter()

	router.Use(exportmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"}); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode health response")
		}
	})
	if config.Dependencies.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", config.Dependencies.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/exports", exportHandler.CreateExport)
		r.Get("/exports/options", exportHandler.ListOptions)
	})

	return router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
