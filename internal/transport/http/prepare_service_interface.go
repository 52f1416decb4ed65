package http

import (
	"context"

	"energyforecast/internal/services"
)

// PrepareServiceInterface defines the preparation operations the handler needs
type PrepareServiceInterface interface {
	Prepare(ctx context.Context, req services.PrepareRequest) (*services.PrepareReport, error)
	Datasets(ctx context.Context) ([]string, error)
}

// HealthServiceInterface defines the health operations the handler needs
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
}
