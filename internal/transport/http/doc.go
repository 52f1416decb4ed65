// Package http implements the HTTP handlers of the forecast service.
//
// Handlers stay thin: they decode and validate the request, call a service and
// render the result. Every failure goes through errors.ErrorHandler so clients
// always receive an RFC 7807 problem document.
//
// # Endpoints
//
//	POST /api/v1/prepare     run one preparation and return its report
//	GET  /api/v1/datasets    list the datasets in the data directory
//	GET  /api/health         liveness with runtime statistics
//	GET  /api/health/ready   readiness of the data and reports directories
//	GET  /api/version        build information
package http
