// Package app wires configuration, logging, telemetry, services and the HTTP
// router of the forecast server, and manages its lifecycle.
//
// New resolves and creates the data, reports and logs directories, installs
// OpenTelemetry, starts the progress hub and builds the chi router. Run serves
// until its context is cancelled (cmd/forecast-server cancels on SIGINT or
// SIGTERM) and then calls Stop.
//
// Errors are returned to the caller; the package never calls os.Exit.
package app
