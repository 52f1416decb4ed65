package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"energyforecast/internal/config"
	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/infrastructure"
	"energyforecast/internal/services"
	"energyforecast/internal/validation"
	"energyforecast/internal/websocket"
	"energyforecast/pkg/contracts"
)

// Application is the forecast server with all of its dependencies wired
type Application struct {
	Config         *config.Config
	Paths          *config.Paths
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.PrepareMetrics
	PrepareService *services.PrepareService
	HealthService  *services.HealthService
	Hub            *websocket.Hub

	startTime time.Time
}

// NewApplication loads configuration from the usual locations and the
// environment, installs the global logger and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return New(cfg, logger)
}

// New builds the application from cfg. Directories are created, telemetry is
// installed and the progress hub is running when it returns.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		startTime:     time.Now(),
	}
	if err := a.wire(); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, err
	}

	a.Router = a.routes()
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	logger.Info("application built",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("data_dir", paths.DataDir))
	return a, nil
}

// wire creates metrics, the progress hub and the services
func (a *Application) wire() error {
	if meter := a.OTelProviders.Meter; meter != nil {
		metrics, err := infrastructure.CreatePrepareMetrics(meter)
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
		if err := infrastructure.RegisterRuntimeGauges(meter, a.startTime); err != nil {
			return fmt.Errorf("register runtime gauges: %w", err)
		}
		a.Metrics = metrics
	}

	a.Hub = websocket.NewHub(a.Metrics, a.Logger)
	a.Hub.Start()

	loader := dataprocessing.NewLoader(a.Logger).WithConcurrency(a.Config.Forecast.Concurrency)
	a.PrepareService = services.NewPrepareService(a.Config.Forecast, a.Paths, loader, a.Metrics, a.Logger).
		WithReportsDir(a.Paths.ReportsDir).
		WithProgress(a.Hub)
	a.HealthService = services.NewHealthService(a.Paths.DataDir, a.Paths.ReportsDir, a.Logger)
	return nil
}

// Run listens on the configured port and serves until ctx is cancelled or
// the listener fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *Application) serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := a.startupCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup check", slog.String("warnings", err.Error()))
	}
	a.Logger.InfoContext(ctx, "listening",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "shutdown requested")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}

	// ctx may already be cancelled
	if err := a.Stop(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// Stop closes stream clients, drains in-flight requests and flushes telemetry
// within the configured shutdown timeout.
func (a *Application) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// hijacked connections are not closed by Shutdown
	a.Hub.Stop()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "stopped", slog.Duration("uptime", time.Since(a.startTime).Round(time.Second)))
	return nil
}

// startupCheck runs the readiness probes once and checks the logs directory.
// Failures are returned as one combined warning; the server keeps running.
func (a *Application) startupCheck(ctx context.Context) error {
	var warnings []string

	ready := a.HealthService.ReadinessCheck(ctx)
	for name, check := range ready.Checks {
		if check.Status != services.StatusReady {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, check.Message))
		}
	}
	if err := validation.NewPathValidator(a.Logger).ValidateReportsDir(a.Paths.LogsDir); err != nil {
		warnings = append(warnings, fmt.Sprintf("logs_dir: %s", err))
	}

	if len(warnings) > 0 {
		return errors.New(strings.Join(warnings, "; "))
	}
	a.Logger.InfoContext(ctx, "startup check passed", slog.String("datasets", ready.Checks["data_dir"].Message))
	return nil
}
