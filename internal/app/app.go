package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"tsgen/internal/config"
	apperrors "tsgen/internal/errors"
	"tsgen/internal/exporter"
	"tsgen/internal/holidays"
	"tsgen/internal/infrastructure"
	customMiddleware "tsgen/internal/middleware"
	"tsgen/internal/reference"
	"tsgen/internal/scenario"
	"tsgen/internal/services"
	handlers "tsgen/internal/transport/http"
	"tsgen/pkg/contracts"
)

// AppName is the human readable application name.
const AppName = "tsgen - synthetic time series generator"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Generation    *services.GenerationService
	Health        *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.GenerationMetrics
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("config_file", cfg.File()))

	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewGenerationMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	app.Generation = NewGenerationService(cfg, paths, metrics, logger)
	app.Health = services.NewHealthService(paths, logger)

	app.setupRouter()
	app.createServer()

	return app, nil
}

// NewDependencies wires the shared factor resources: the holiday registry
// and the configured reference datasets. Unconfigured datasets stay nil so
// factors that need them fail at build time.
func NewDependencies(cfg *config.Config, paths *config.Paths, logger *slog.Logger) scenario.Dependencies {
	deps := scenario.Dependencies{
		Calendar: holidays.NewRegistry(),
		Resolve:  paths.DataFile,
		Logger:   logger,
	}
	if paths.GDPFile != "" {
		deps.GDP = &reference.FileSource{Path: paths.GDPFile, Sheet: cfg.Reference.GDPSheet}
	}
	if paths.IndustryIndexFile != "" {
		deps.Industry = &reference.FileSource{Path: paths.IndustryIndexFile, Sheet: cfg.Reference.IndustrySheet}
	}
	return deps
}

// NewGenerationService builds the generation service over the configured
// scenario and output directories. metrics may be nil.
func NewGenerationService(cfg *config.Config, paths *config.Paths, metrics *infrastructure.GenerationMetrics, logger *slog.Logger) *services.GenerationService {
	return services.NewGenerationService(
		scenario.NewBuilder(NewDependencies(cfg, paths, logger)),
		services.NewScenarioStore(paths.ScenarioDir, logger),
		exporter.NewFileExporter(paths, logger),
		cfg.Generation,
		metrics,
		logger,
	)
}

// setupRouter builds the chi router.
// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")
	server := a.Config.Server

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errorHandler.Recoverer)
	if server.RequestTimeout > 0 {
		r.Use(customMiddleware.Timeout(server.RequestTimeout, a.Logger))
	}
	r.Use(customMiddleware.SecurityHeaders)
	if len(server.AllowedOrigins) > 0 {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: server.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}
	r.Use(customMiddleware.Compress(5))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler, server.MaxBodyBytes)
	generationHandler := handlers.NewGenerationHandler(a.Generation, validation, a.Config.Generation.Precision, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			if server.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(server.RateLimit.RPS, server.RateLimit.Burst, a.Logger).Handler)
			}
			r.Use(customMiddleware.APIKeyAuth(a.Logger, server.APIKeys))
			r.Mount("/v1", generationHandler.Routes())
		})
	})

	// Prometheus scrapes outside the API middleware
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve accepts connections on l until the server is shut down. It returns
// nil after a graceful shutdown.
func (a *Application) Serve(l net.Listener) error {
	a.Logger.Info("Server listening",
		slog.String("address", l.Addr().String()),
		slog.String("scenario_dir", a.Paths.ScenarioDir),
		slog.String("output_dir", a.Paths.OutputDir))

	if err := a.Server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves on the configured port until ctx is cancelled or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve(l) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	}

	if err := a.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
