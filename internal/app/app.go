package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/infrastructure"
	customMiddleware "github.com/ShagReza/DataCuration-EASMS/internal/middleware"
	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
	"github.com/ShagReza/DataCuration-EASMS/internal/services"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
	handlers "github.com/ShagReza/DataCuration-EASMS/internal/transport/http"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Store         *store.Store
	Manager       *operations.Manager
	RunService    *services.RunService
	HealthService *services.HealthService
	ErrorHandler  *apperrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server
}

// New creates a new application instance with dependency injection
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	ledger, err := store.Open(paths.DatabaseFile, logger)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}

	manager, err := operations.NewCurationManager(cfg, paths, providers, ledger, logger)
	if err != nil {
		_ = ledger.Close()
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create curation manager: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Store:         ledger,
		Manager:       manager,
		RunService:    services.NewRunService(manager, ledger, cfg.Server.RunTimeout, paths.DataDir, logger),
		HealthService: services.NewHealthService(ledger, manager, logger),
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}
	a.setupRouter()
	a.createServer()

	logger.Info("application initialized",
		slog.String("app", config.AppName),
		slog.String("version", config.Version),
		slog.String("ledger", ledger.Path()))
	return a, nil
}

// setupRouter builds the middleware chain and mounts the API
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Tracing(a.OTelProviders.Tracer))
	r.Use(customMiddleware.StructuredLogger(a.Logger, a.Manager.Metrics()))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.StripSlashes)
	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	runsHandler := handlers.NewRunsHandler(a.RunService, customMiddleware.NewValidator(a.Logger), a.ErrorHandler, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.LivenessCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/runs", runsHandler.Routes())
	})

	a.Router = r
}

// createServer creates the HTTP server. Runs execute within a request, so
// the write timeout covers the run timeout.
func (a *Application) createServer() {
	writeTimeout := a.Config.Server.WriteTimeout
	if rt := a.Config.Server.RunTimeout + 5*time.Second; rt > writeTimeout {
		writeTimeout = rt
	}
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// RunBatch executes one run outside the HTTP server and, when configured,
// writes the metrics textfile afterwards.
func (a *Application) RunBatch(ctx context.Context, req operations.Request) (*operations.Response, error) {
	resp, err := a.Manager.Run(ctx, req)

	if path := a.Config.Output.MetricsTextfile; path != "" && a.OTelProviders.Registry != nil {
		if werr := a.OTelProviders.WriteMetricsTextfile(path); werr != nil {
			infrastructure.WithError(a.Logger, werr).WarnContext(ctx, "failed to write metrics textfile",
				slog.String("path", path))
		}
	}
	return resp, err
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *Application) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.Server.Addr),
			slog.Duration("run_timeout", a.Config.Server.RunTimeout))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.InfoContext(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close releases the run ledger and flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close run ledger: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
