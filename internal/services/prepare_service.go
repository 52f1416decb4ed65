package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"energyforecast/internal/config"
	"energyforecast/internal/evaluate"
	"energyforecast/internal/features"
	"energyforecast/internal/infrastructure"
	"energyforecast/internal/split"
	"energyforecast/pkg/contracts"
	"energyforecast/pkg/contracts/domain"
)

// Pipeline stage names, used as span suffixes and metric labels
const (
	StageLoad     = "load"
	StageFeatures = "features"
	StageSplit    = "split"
	StageEvaluate = "evaluate"
)

// DatasetStore resolves dataset names inside the data directory
type DatasetStore interface {
	DatasetPath(name string) (string, error)
	ListDatasets() ([]string, error)
}

// TableLoader reads a dataset into a time-ordered table
type TableLoader interface {
	Load(ctx context.Context, path, timeField string) (*domain.Table, error)
}

// PrepareRequest describes one preparation run. Zero-valued fields fall back to
// the configured defaults; a nil Lags or Windows does too, while an empty list
// disables that feature family.
type PrepareRequest struct {
	Dataset     string                   `json:"dataset" validate:"required"`
	TimeField   string                   `json:"time_field,omitempty"`
	Target      string                   `json:"target,omitempty"`
	Lags        []int                    `json:"lags,omitempty" validate:"omitempty,dive,min=1"`
	Windows     []int                    `json:"windows,omitempty" validate:"omitempty,dive,min=1"`
	Mode        string                   `json:"mode,omitempty" validate:"omitempty,oneof=fixed walk_forward"`
	TrainEnd    string                   `json:"train_end,omitempty"`
	ValEnd      string                   `json:"val_end,omitempty"`
	WalkForward *split.WalkForwardConfig `json:"walk_forward,omitempty"`
	SaveReport  bool                     `json:"save_report,omitempty"`
}

// PrepareService loads a dataset, derives lag and rolling features, splits it
// chronologically and scores a persistence baseline on the held-out partitions.
type PrepareService struct {
	defaults   config.ForecastConfig
	datasets   DatasetStore
	loader     TableLoader
	reportsDir string
	metrics    *infrastructure.PrepareMetrics
	progress   ProgressReporter
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewPrepareService creates a prepare service. metrics may be nil.
func NewPrepareService(defaults config.ForecastConfig, datasets DatasetStore, loader TableLoader, metrics *infrastructure.PrepareMetrics, logger *slog.Logger) *PrepareService {
	return &PrepareService{
		defaults: defaults,
		datasets: datasets,
		loader:   loader,
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   infrastructure.WithComponent(logger, "prepare_service"),
	}
}

// WithReportsDir enables writing reports for requests with SaveReport set
func (s *PrepareService) WithReportsDir(dir string) *PrepareService {
	s.reportsDir = dir
	return s
}

// Datasets lists the dataset names that can be prepared
func (s *PrepareService) Datasets(ctx context.Context) ([]string, error) {
	names, err := s.datasets.ListDatasets()
	if err != nil {
		s.logger.ErrorContext(ctx, "list datasets failed", slog.String("error", err.Error()))
		return nil, err
	}
	return names, nil
}

// runOptions is a PrepareRequest merged with the defaults
type runOptions struct {
	dataset     string
	timeField   string
	target      string
	lags        []int
	windows     []int
	mode        string
	trainEnd    string
	valEnd      string
	walkForward split.WalkForwardConfig
	save        bool
}

func (s *PrepareService) resolve(req PrepareRequest) (runOptions, error) {
	opts := runOptions{
		dataset:     req.Dataset,
		timeField:   firstNonEmpty(req.TimeField, s.defaults.TimeField),
		target:      firstNonEmpty(req.Target, s.defaults.Target),
		lags:        s.defaults.Lags,
		windows:     s.defaults.Windows,
		mode:        firstNonEmpty(req.Mode, s.defaults.Mode, config.ModeFixed),
		walkForward: s.defaults.WalkForward,
		save:        req.SaveReport,
	}
	if req.Lags != nil {
		opts.lags = req.Lags
	}
	if req.Windows != nil {
		opts.windows = req.Windows
	}
	if req.WalkForward != nil {
		opts.walkForward = *req.WalkForward
	}

	switch opts.mode {
	case config.ModeFixed:
		// parsed in the split stage, after the time field is known to exist
		opts.trainEnd, opts.valEnd = s.defaults.TrainEnd, s.defaults.ValEnd
		if req.TrainEnd != "" || req.ValEnd != "" {
			opts.trainEnd, opts.valEnd = req.TrainEnd, req.ValEnd
		}
	case config.ModeWalkForward:
		// rejected in the split stage
		opts.trainEnd, opts.valEnd = req.TrainEnd, req.ValEnd
	default:
		return runOptions{}, fmt.Errorf("%w: %q", ErrInvalidMode, opts.mode)
	}

	return opts, nil
}

// Prepare runs the pipeline for req and returns its report
func (s *PrepareService) Prepare(ctx context.Context, req PrepareRequest) (*PrepareReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()

	opts, err := s.resolve(req)
	if err != nil {
		s.recordFailure(ctx, req.Mode, err)
		return nil, err
	}

	report := &PrepareReport{
		RunID:         uuid.NewString(),
		FormatVersion: contracts.ReportFormatVersion,
		Dataset:       opts.dataset,
		StartedAt:     start.UTC(),
		Mode:          opts.mode,
		TimeField:     opts.timeField,
		Target:        opts.target,
	}

	ctx, span := s.tracer.Start(ctx, "prepare.run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("dataset", opts.dataset),
		attribute.String("split.mode", opts.mode),
	))
	defer span.End()

	ctx = infrastructure.WithRun(ctx, infrastructure.RunScope{RunID: report.RunID, Dataset: opts.dataset})
	s.logger.InfoContext(ctx, "preparation started", slog.String("mode", opts.mode))
	s.emit(ctx, report, StageRun, ProgressStarted, 0, nil)

	if err := s.run(ctx, opts, report); err != nil {
		infrastructure.RecordError(ctx, err)
		s.recordFailure(ctx, opts.mode, err)
		s.emit(ctx, report, StageRun, ProgressFailed, time.Since(start), err)
		s.logger.ErrorContext(ctx, "preparation failed",
			slog.String("error", err.Error()),
			slog.String("kind", errorKind(err)),
		)
		return nil, err
	}

	report.DurationMS = float64(time.Since(start).Microseconds()) / 1000

	if opts.save {
		if err := s.saveReport(report); err != nil {
			s.recordFailure(ctx, opts.mode, err)
			s.emit(ctx, report, StageRun, ProgressFailed, time.Since(start), err)
			return nil, err
		}
	}
	s.emit(ctx, report, StageRun, ProgressCompleted, time.Since(start), nil)

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("mode", opts.mode), attribute.String("status", "success"))
		s.metrics.RunsTotal.Add(ctx, 1, attrs)
		s.metrics.RunDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if len(report.Folds) > 0 {
			s.metrics.FoldsProduced.Add(ctx, int64(len(report.Folds)))
		}
	}

	s.logger.InfoContext(ctx, "preparation completed",
		slog.Int("rows", report.Rows),
		slog.Int("partitions", len(report.Partitions)),
		slog.Int("folds", len(report.Folds)),
		slog.Int("unassigned", report.Unassigned),
		slog.Float64("duration_ms", report.DurationMS),
	)
	return report, nil
}

func (s *PrepareService) run(ctx context.Context, opts runOptions, report *PrepareReport) error {
	var tbl *domain.Table

	err := s.stage(ctx, report, StageLoad, func(ctx context.Context) error {
		path, err := s.datasets.DatasetPath(opts.dataset)
		if err != nil {
			return err
		}
		if tbl, err = s.loader.Load(ctx, path, opts.timeField); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RowsLoaded.Add(ctx, int64(tbl.Len()))
		}
		infrastructure.AddSpanEvent(ctx, "table.loaded", attribute.Int("rows", tbl.Len()))
		return nil
	})
	if err != nil {
		return err
	}
	report.Rows = tbl.Len()
	report.Fields = tbl.Fields()

	err = s.stage(ctx, report, StageFeatures, func(context.Context) error {
		var err error
		if len(opts.lags) > 0 {
			if tbl, err = features.AddLagFeatures(tbl, opts.target, opts.timeField, opts.lags); err != nil {
				return err
			}
		}
		if len(opts.windows) > 0 {
			if tbl, err = features.AddRollingFeatures(tbl, opts.target, opts.timeField, opts.windows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	report.FeatureFields = featureFields(opts)

	switch opts.mode {
	case config.ModeWalkForward:
		return s.walkForward(ctx, tbl, opts, report)
	default:
		return s.fixed(ctx, tbl, opts, report)
	}
}

func (s *PrepareService) fixed(ctx context.Context, tbl *domain.Table, opts runOptions, report *PrepareReport) error {
	var (
		part   split.Partition
		bounds split.Boundaries
	)
	err := s.stage(ctx, report, StageSplit, func(context.Context) error {
		if err := split.CheckField(tbl, opts.timeField); err != nil {
			return err
		}
		var err error
		if bounds, err = split.ParseBoundaries(opts.trainEnd, opts.valEnd); err != nil {
			return err
		}
		part, err = split.FixedBoundary(tbl, opts.timeField, bounds)
		return err
	})
	if err != nil {
		return err
	}

	if !bounds.IsZero() {
		report.Boundaries = &bounds
	}
	report.Partitions = []PartitionSummary{
		summarize(PartitionTrain, part.Train, opts.timeField),
		summarize(PartitionVal, part.Val, opts.timeField),
		summarize(PartitionTest, part.Test, opts.timeField),
	}

	// rows without a timestamp are dropped by an explicit-boundary split
	report.Unassigned = tbl.Len() - part.Train.Len() - part.Val.Len() - part.Test.Len()
	if report.Unassigned < 0 {
		report.Unassigned = 0
	}

	return s.stage(ctx, report, StageEvaluate, func(context.Context) error {
		var err error
		if report.Partitions[1].Baseline, err = baseline(part.Val, opts); err != nil {
			return err
		}
		report.Partitions[2].Baseline, err = baseline(part.Test, opts)
		return err
	})
}

// rejectBoundaries refuses fixed-split boundaries on a walk-forward request
func rejectBoundaries(opts runOptions) error {
	const reason = "not used in walk_forward mode"
	if opts.trainEnd != "" {
		return &split.InvalidParameterError{Param: "train_end", Value: opts.trainEnd, Reason: reason}
	}
	if opts.valEnd != "" {
		return &split.InvalidParameterError{Param: "val_end", Value: opts.valEnd, Reason: reason}
	}
	return nil
}

func (s *PrepareService) walkForward(ctx context.Context, tbl *domain.Table, opts runOptions, report *PrepareReport) error {
	var folds []split.Fold
	err := s.stage(ctx, report, StageSplit, func(context.Context) error {
		if err := split.CheckField(tbl, opts.timeField); err != nil {
			return err
		}
		if err := rejectBoundaries(opts); err != nil {
			return err
		}
		var err error
		folds, err = split.WalkForward(tbl, opts.timeField, opts.walkForward)
		return err
	})
	if err != nil {
		return err
	}

	cfg := opts.walkForward
	report.WalkForward = &cfg
	report.Unassigned = split.Unassigned(tbl.Len(), folds)

	if len(folds) < cfg.NFolds {
		s.logger.WarnContext(ctx, "walk-forward stopped early",
			slog.Int("requested", cfg.NFolds),
			slog.Int("produced", len(folds)),
		)
	}

	return s.stage(ctx, report, StageEvaluate, func(context.Context) error {
		report.Folds = make([]FoldSummary, 0, len(folds))
		for _, f := range folds {
			fs := FoldSummary{
				Index: f.Index(),
				Train: summarize(PartitionTrain, f.Train(), opts.timeField),
				Val:   summarize(PartitionVal, f.Val(), opts.timeField),
			}
			var err error
			if fs.Val.Baseline, err = baseline(f.Val(), opts); err != nil {
				return fmt.Errorf("fold %d: %w", f.Index(), err)
			}
			report.Folds = append(report.Folds, fs)
		}
		return nil
	})
}

// stage runs fn inside a prepare.<name> span and records its duration
func (s *PrepareService) stage(ctx context.Context, report *PrepareReport, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "prepare."+name)
	defer span.End()

	s.emit(ctx, report, name, ProgressStarted, 0, nil)

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.emit(ctx, report, name, ProgressFailed, time.Since(start), err)
	} else {
		s.emit(ctx, report, name, ProgressCompleted, time.Since(start), nil)
	}

	if s.metrics != nil {
		s.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", name)))
	}
	return err
}

func (s *PrepareService) recordFailure(ctx context.Context, mode string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", "error"),
	))
	s.metrics.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", errorKind(err))))
}

func (s *PrepareService) saveReport(report *PrepareReport) error {
	if s.reportsDir == "" {
		return errors.New("report saving is not configured")
	}
	if err := os.MkdirAll(s.reportsDir, 0755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	path := filepath.Join(s.reportsDir, fmt.Sprintf("%s-%s.json", report.Dataset, report.RunID))
	report.ReportPath = path

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// baseline scores {target}_lag_1 against the target on tbl. It returns nil
// when the lag column was not generated or no row has both values.
func baseline(tbl *domain.Table, opts runOptions) (*evaluate.Score, error) {
	pred := features.LagField(opts.target, 1)
	if !tbl.HasField(pred) {
		return nil, nil
	}

	score, err := evaluate.ColumnRMSE(tbl, opts.target, pred)
	if errors.Is(err, evaluate.ErrEmptyInput) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func featureFields(opts runOptions) []string {
	fields := make([]string, 0, len(opts.lags)+len(opts.windows))
	for _, k := range opts.lags {
		fields = append(fields, features.LagField(opts.target, k))
	}
	for _, w := range opts.windows {
		fields = append(fields, features.RollingField(opts.target, w))
	}
	return fields
}

func errorKind(err error) string {
	if kind := split.KindOf(err); kind != "" {
		return string(kind)
	}
	switch {
	case errors.Is(err, config.ErrDatasetNotFound):
		return "dataset_not_found"
	case errors.Is(err, config.ErrInvalidDatasetName):
		return "invalid_dataset_name"
	case errors.Is(err, ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "internal"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
