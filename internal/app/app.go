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
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bizdash/internal/config"
	apierrors "bizdash/internal/errors"
	"bizdash/internal/events"
	"bizdash/internal/exporter"
	"bizdash/internal/infrastructure"
	customMiddleware "bizdash/internal/middleware"
	"bizdash/internal/services"
	"bizdash/internal/sheets"
	"bizdash/internal/store"
	handlers "bizdash/internal/transport/http"
	ws "bizdash/internal/websocket"
)

// BuildTime is overridden at link time with -ldflags "-X bizdash/internal/app.BuildTime=...".
var BuildTime = time.Now().Format(time.RFC3339)

// Application is the dashboard server container.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer

	closeOnce sync.Once
}

// ServiceContainer holds the wired services and the resources they own.
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Hub       *ws.Hub
	Events    events.Publisher
	Store     *store.Store
	Sheets    *sheets.Client
	PNG       *exporter.PNGRenderer
}

// NewApplication loads configuration and the logger, then wires the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires an application from an explicit configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(context.Background()); err != nil {
		app.closeResources(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices opens the optional backends and builds the services.
// Disabled or unreachable optional backends leave their feature off.
func (a *Application) initializeServices(ctx context.Context) error {
	c := &ServiceContainer{}
	a.Services = c
	checks := map[string]services.Pinger{}
	deps := services.Dependencies{
		Processing: a.Config.Processing,
		Paths:      a.Paths,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	}

	if a.Config.Store.Enabled {
		st, err := store.Open(ctx, a.Paths.DatabaseFile, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		c.Store = st
		deps.Runs = st
		checks["store"] = st
	}

	c.Hub = ws.NewHub(a.Metrics, a.Logger)
	c.Hub.Start()
	publishers := events.Multi{c.Hub}
	if a.Config.Events.Enabled {
		amqp, err := events.NewAMQPPublisher(a.Config.Events.URL, a.Config.Events.Exchange, a.Config.Events.RoutingKey, a.Logger)
		if err != nil {
			a.Logger.WarnContext(ctx, "Run events disabled, broker unreachable",
				slog.String("error", err.Error()))
		} else {
			publishers = append(publishers, amqp)
		}
	}
	c.Events = publishers
	deps.Events = publishers

	if a.Config.Sheets.Enabled {
		client, err := sheets.New(ctx, sheets.Config{
			CredentialsJSON: a.Config.Sheets.CredentialsJSON,
			CredentialsFile: a.Config.Sheets.CredentialsFile,
			Endpoint:        a.Config.Sheets.Endpoint,
		}, a.Logger)
		if err != nil {
			a.Logger.WarnContext(ctx, "Google Sheets source disabled",
				slog.String("error", err.Error()))
		} else {
			c.Sheets = client
			deps.Sheets = client
		}
	}

	var rasterizer exporter.Rasterizer
	if a.Config.Export.PNG {
		c.PNG = exporter.NewPNGRenderer(exporter.PNGOptions{
			RemoteURL: a.Config.Export.ChromeURL,
			Timeout:   a.Config.Export.Timeout,
		}, a.Logger)
		rasterizer = c.PNG
	}
	deps.Exporter = exporter.NewExporter(a.Paths, rasterizer, a.Logger)

	c.Dashboard = services.NewDashboardService(deps)
	c.Health = services.NewHealthService(config.AppVersion, BuildTime, checks, map[string]bool{
		"run_history": c.Store != nil,
		"events":      len(publishers) > 1,
		"sheets":      c.Sheets != nil,
		"png_export":  c.PNG != nil,
	}, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Middleware that does not wrap the ResponseWriter, so it is safe for the
	// websocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)
	r.Get("/healthz/live", healthHandler.LivenessCheck)
	if a.OTelProviders.Registry != nil {
		r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.Registry))
	}
	r.Get("/ws/session", a.sessionHandler().ServeHTTP)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → security → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			r.Get("/version", healthHandler.Version)
			r.Post("/client-logs", handlers.NewClientLogHandler(a.Logger, a.ErrorHandler).Handle)

			dashboardHandler := handlers.NewDashboardHandler(
				a.Services.Dashboard,
				a.Config.Processing.MaxUploadBytes,
				a.Logger,
				a.ErrorHandler,
			)
			r.Mount("/", dashboardHandler.Routes())
		})

		r.Handle("/*", handlers.WebApp(a.Paths.WebDir))
	})

	a.Router = r
}

func (a *Application) sessionHandler() *ws.Handler {
	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Error("Failed to create websocket metrics", slog.String("error", err.Error()))
	}
	return ws.NewHandler(ws.Options{
		Service:        a.Services.Dashboard,
		Hub:            a.Services.Hub,
		Config:         a.Config.WebSocket,
		MessageTimeout: a.Config.Server.RequestTimeout,
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		ErrorHandler:   a.ErrorHandler,
		Metrics:        wsMetrics,
		Logger:         a.Logger,
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. cancel is called if the listener
// fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+listener.Addr().String()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}
	a.closeResources(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return shutdownErr
}

// closeResources releases everything initializeServices opened, once.
// Sessions are closed through the hub, which is one of the event publishers.
func (a *Application) closeResources(ctx context.Context) {
	a.closeOnce.Do(func() { a.release(ctx) })
}

func (a *Application) release(ctx context.Context) {
	if c := a.Services; c != nil {
		if c.Events != nil {
			if err := c.Events.Close(); err != nil {
				a.Logger.ErrorContext(ctx, "Error closing event publishers", slog.String("error", err.Error()))
			}
		} else if c.Hub != nil {
			c.Hub.Stop()
		}
		if c.PNG != nil {
			c.PNG.Close()
		}
		if c.Store != nil {
			if err := c.Store.Close(); err != nil {
				a.Logger.ErrorContext(ctx, "Error closing run store", slog.String("error", err.Error()))
			}
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck checks that the data directories are writable
// and the web directory exists.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Uploads": a.Paths.UploadsDir,
		"Reports": a.Paths.ReportsDir,
		"Logs":    a.Paths.LogsDir,
	}
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if !config.FileExists(filepath.Join(a.Paths.WebDir, "index.html")) {
		warnings = append(warnings, fmt.Sprintf("Web frontend not found: %s", a.Paths.WebDir))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
