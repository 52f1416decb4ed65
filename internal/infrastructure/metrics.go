package infrastructure

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// PrepareMetrics holds the instruments of the preparation pipeline, its HTTP
// surface and the progress stream.
type PrepareMetrics struct {
	RunsTotal     metric.Int64Counter
	RunDuration   metric.Float64Histogram
	StageDuration metric.Float64Histogram
	RowsLoaded    metric.Int64Counter
	FoldsProduced metric.Int64Counter
	Errors        metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	WebSocketClients      metric.Int64UpDownCounter
	ProgressEventsSent    metric.Int64Counter
	ProgressEventsDropped metric.Int64Counter
}

type counterDef struct {
	dst  *metric.Int64Counter
	name string
	desc string
}

type histogramDef struct {
	dst  *metric.Float64Histogram
	name string
	desc string
}

type gaugeDef struct {
	dst  *metric.Int64UpDownCounter
	name string
	desc string
}

// CreatePrepareMetrics registers every instrument on meter
func CreatePrepareMetrics(meter metric.Meter) (*PrepareMetrics, error) {
	m := &PrepareMetrics{}

	counters := []counterDef{
		{&m.RunsTotal, "prepare_runs_total", "Preparation runs by mode and status"},
		{&m.RowsLoaded, "prepare_rows_loaded_total", "Rows loaded from datasets"},
		{&m.FoldsProduced, "prepare_folds_produced_total", "Walk-forward folds produced"},
		{&m.Errors, "prepare_errors_total", "Failed preparation runs by error kind"},
		{&m.HTTPRequestsTotal, "http_requests_total", "HTTP requests by method, route and status"},
		{&m.ProgressEventsSent, "progress_events_sent_total", "Progress messages delivered to stream clients"},
		{&m.ProgressEventsDropped, "progress_events_dropped_total", "Progress messages dropped on full buffers"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = inst
	}

	histograms := []histogramDef{
		{&m.RunDuration, "prepare_run_duration_seconds", "Preparation run duration"},
		{&m.StageDuration, "prepare_stage_duration_seconds", "Duration of each preparation stage"},
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration"},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", h.name, err)
		}
		*h.dst = inst
	}

	gauges := []gaugeDef{
		{&m.HTTPActiveRequests, "http_active_requests", "In-flight HTTP requests"},
		{&m.WebSocketClients, "websocket_clients", "Connected progress stream clients"},
	}
	for _, g := range gauges {
		inst, err := meter.Int64UpDownCounter(g.name, metric.WithDescription(g.desc))
		if err != nil {
			return nil, fmt.Errorf("up-down counter %s: %w", g.name, err)
		}
		*g.dst = inst
	}

	return m, nil
}
