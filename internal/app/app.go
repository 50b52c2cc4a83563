// Package app assembles the epidemd service: configuration, logging,
// OpenTelemetry providers, the middleware chain, routes and the HTTP
// server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"epidem/internal/config"
	apierrors "epidem/internal/errors"
	"epidem/internal/infrastructure"
	custommiddleware "epidem/internal/middleware"
	"epidem/internal/services"
	transporthttp "epidem/internal/transport/http"
)

// Application holds the wired service components
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Server        *http.Server
}

// New loads configuration and wires the application
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	slog.SetDefault(logger)

	providers, err := infrastructure.InitOTel(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
	}

	router, err := app.setupRouter()
	if err != nil {
		return nil, err
	}

	app.Server = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *Application) setupRouter() (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(a.Logger))
	r.Use(custommiddleware.Recoverer(a.Logger))

	observability, err := custommiddleware.NewObservability(a.OTelProviders)
	if err != nil {
		return nil, fmt.Errorf("create observability middleware: %w", err)
	}
	r.Use(observability.Handler)

	if a.Config.Security.RateLimit.Enabled {
		limiter := custommiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.Use(chimiddleware.Timeout(a.Config.Server.RequestTimeout))

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	analysisService := services.NewAnalysisService(a.Config.Analysis, a.Logger)
	analysisHandler := transporthttp.NewAnalysisHandler(analysisService, a.Logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler(a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", healthHandler.HealthCheck)
		r.Mount("/", analysisHandler.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Method(http.MethodGet, "/metrics", a.OTelProviders.PrometheusHTTP)
	}

	return r, nil
}

// Run starts the HTTP server and blocks until an interrupt or server
// failure, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server starting",
			slog.String("addr", a.Server.Addr),
			slog.String("version", infrastructure.ServiceVersion))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	return a.Stop(context.Background())
}

// Stop gracefully shuts down the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}

	a.Logger.Info("server stopped")
	return nil
}
