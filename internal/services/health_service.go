package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"energyforecast/internal/infrastructure"
	"energyforecast/internal/validation"
	"energyforecast/pkg/contracts"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService reports liveness, readiness and build information
type HealthService struct {
	dataDir    string
	reportsDir string
	validator  *validation.PathValidator
	startTime  time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Uptime    string                       `json:"uptime"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Checks    map[string]ServiceHealth     `json:"checks,omitempty"`
}

// ServiceHealth represents the health of one dependency
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service checking the given directories
func NewHealthService(dataDir, reportsDir string, logger *slog.Logger) *HealthService {
	return &HealthService{
		dataDir:    dataDir,
		reportsDir: reportsDir,
		validator:  validation.NewPathValidator(logger),
		startTime:  time.Now(),
		logger:     infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns liveness with runtime statistics
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    stats.ProcessUptime.Round(time.Second).String(),
		Runtime:   &stats,
	}

	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports whether the data and reports directories are usable
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
		Checks: map[string]ServiceHealth{
			"data_dir":    hs.checkDataDir(),
			"reports_dir": hs.checkReportsDir(),
		},
	}

	for name, check := range status.Checks {
		if check.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("message", check.Message),
			)
		}
	}
	return status
}

// Version returns build information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	count, err := hs.validator.ValidateDataDir(hs.dataDir)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{Status: StatusReady, Message: fmt.Sprintf("%d datasets", count)}
}

func (hs *HealthService) checkReportsDir() ServiceHealth {
	if err := hs.validator.ValidateReportsDir(hs.reportsDir); err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{Status: StatusReady}
}
