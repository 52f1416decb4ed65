package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "Energy Forecast"
	AppVersion  = "1.0.0"
	ServiceName = "energyforecast"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultRequestTimeout = 2 * time.Minute

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Dataset defaults
	DefaultTimeField = "Date"
	DefaultTarget    = "Production"

	// API Endpoints
	APIBasePath       = "/api/v1"
	PrepareEndpoint   = "/api/v1/prepare"
	HealthEndpoint    = "/api/health"
	VersionEndpoint   = "/api/version"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// Split modes
const (
	ModeFixed       = "fixed"
	ModeWalkForward = "walk_forward"
)
