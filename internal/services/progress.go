package services

import (
	"context"
	"time"
)

// StageRun marks events that describe a whole preparation run
const StageRun = "run"

// Progress statuses
const (
	ProgressStarted   = "started"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// ProgressEvent reports a stage transition of a preparation run
type ProgressEvent struct {
	RunID      string    `json:"run_id"`
	Dataset    string    `json:"dataset"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProgressReporter receives progress events. Implementations must not block.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, event ProgressEvent)
}

// WithProgress publishes stage transitions to r
func (s *PrepareService) WithProgress(r ProgressReporter) *PrepareService {
	s.progress = r
	return s
}

func (s *PrepareService) emit(ctx context.Context, report *PrepareReport, stage, status string, elapsed time.Duration, err error) {
	if s.progress == nil {
		return
	}

	event := ProgressEvent{
		RunID:     report.RunID,
		Dataset:   report.Dataset,
		Stage:     stage,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
	if status != ProgressStarted {
		event.DurationMS = float64(elapsed.Microseconds()) / 1000
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.progress.ReportProgress(ctx, event)
}
