// Package services holds the application use cases behind the HTTP and CLI surfaces.
//
// PrepareService runs one preparation: it resolves a dataset by name, loads it,
// adds lag and rolling-mean features, splits it chronologically (fixed boundaries
// or walk-forward) and summarises every partition, scoring a persistence baseline
// on the held-out ones. Each stage runs in its own span and is timed into
// PrepareMetrics.
//
// HealthService answers liveness and readiness probes.
package services
