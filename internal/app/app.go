package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"solarcli/internal/charts"
	"solarcli/internal/cleaning"
	"solarcli/internal/config"
	"solarcli/internal/infrastructure"
	"solarcli/internal/middleware"
	transporthttp "solarcli/internal/transport/http"
	"solarcli/internal/websocket"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Application wires the dashboard server together.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger

	hub       *websocket.Hub
	service   *transporthttp.DatasetService
	dashboard *transporthttp.DashboardHandler
	health    *transporthttp.HealthHandler
	registry  *prometheus.Registry

	router chi.Router
	server *http.Server

	tracerShutdown func(context.Context) error
}

// New builds the application from configuration. The logger must already
// be initialized.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	a := &Application{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "app")),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracerShutdown, err := infrastructure.InitTracing(context.Background(), cfg.Tracing, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	a.hub = websocket.NewHub(logger)
	pipeline := cleaning.New(logger, cleaning.Config{Threshold: cfg.Cleaning.ZScoreThreshold})
	renderer := charts.NewRenderer(logger, charts.DefaultOptions())
	a.service = transporthttp.NewDatasetService(logger, pipeline, renderer, a.hub, cfg.Paths.DataDir)
	a.dashboard = transporthttp.NewDashboardHandler(a.service, a.hub, cfg, logger)
	a.health = transporthttp.NewHealthHandler(Version, func() int { return len(a.service.List()) })

	a.setupRouter()
	a.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        a.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return a, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(middleware.Recoverer(a.logger))
	r.Use(middleware.SecurityHeaders)
	if a.cfg.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: a.cfg.Security.AllowedOrigins,
		}))
	}
	if a.cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(a.cfg.Security.RateLimit.RPS, a.cfg.Security.RateLimit.Burst, a.logger)
		r.Use(limiter.Handler)
	}
	httpMetrics := middleware.NewHTTPMetrics(a.registry)
	r.Use(httpMetrics.Handler)

	r.Get("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/api/health", a.health.Health)
	r.Mount("/api", a.dashboard.Routes())
	r.Get("/ws", a.dashboard.ServeWS)

	if _, err := os.Stat(a.cfg.Paths.WebDir); err == nil {
		fileServer := http.FileServer(http.Dir(a.cfg.Paths.WebDir))
		r.Handle("/*", fileServer)
	}

	a.router = r
}

// Router exposes the configured router for tests.
func (a *Application) Router() http.Handler {
	return a.router
}

// Run starts the server and blocks until the context is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	a.hub.Start()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.Stop()
	})
	return g.Wait()
}

// Stop gracefully shuts the server, hub and tracer down.
func (a *Application) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")
	var firstErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}
	a.hub.Stop()
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tracer shutdown: %w", err)
		}
	}
	infrastructure.CloseLogFile()
	return firstErr
}
