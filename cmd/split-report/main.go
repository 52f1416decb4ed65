// Command split-report prepares one dataset and prints the split report.
//
//	split-report -file data/plant.csv -mode walk_forward -folds 6
//	split-report -dataset plant.csv -train-end 2023-12-31 -val-end 2024-06-30 -format json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"energyforecast/internal/config"
	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/infrastructure"
	"energyforecast/internal/services"
	"energyforecast/internal/split"
	"energyforecast/internal/validation"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	configPath string
	file       string
	dataset    string
	format     string
	request    services.PrepareRequest

	// walk-forward flags given on the command line, overlaid on the loaded config
	initialTrainFrac *float64
	valFrac          *float64
	folds            *int
}

// walkForward returns base with the explicit walk-forward flags applied, or nil
// when none was given so the configured defaults apply unchanged.
func (o options) walkForward(base split.WalkForwardConfig) *split.WalkForwardConfig {
	if o.initialTrainFrac == nil && o.valFrac == nil && o.folds == nil {
		return nil
	}
	if o.initialTrainFrac != nil {
		base.InitialTrainFrac = *o.initialTrainFrac
	}
	if o.valFrac != nil {
		base.ValFrac = *o.valFrac
	}
	if o.folds != nil {
		base.NFolds = *o.folds
	}
	return &base
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "split-report: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging, stderr)
	opts.request.WalkForward = opts.walkForward(cfg.Forecast.WalkForward)

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}

	var store services.DatasetStore = paths
	opts.request.Dataset = opts.dataset
	if opts.file != "" {
		store = fileStore{path: opts.file, validator: validation.NewPathValidator(logger)}
		opts.request.Dataset = filepath.Base(opts.file)
	}

	loader := dataprocessing.NewLoader(logger).WithConcurrency(cfg.Forecast.Concurrency)
	svc := services.NewPrepareService(cfg.Forecast, store, loader, nil, logger)
	if opts.request.SaveReport {
		if err := os.MkdirAll(paths.ReportsDir, 0755); err != nil {
			return fmt.Errorf("create reports directory: %w", err)
		}
		svc.WithReportsDir(paths.ReportsDir)
	}

	report, err := svc.Prepare(ctx, opts.request)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return writeTable(stdout, report)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts             options
		lags, windows    string
		initialTrainFrac float64
		valFrac          float64
		folds            int
	)

	defaults := split.DefaultWalkForwardConfig()

	fs := flag.NewFlagSet("split-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (defaults to the usual search locations)")
	fs.StringVar(&opts.file, "file", "", "dataset file or directory to load directly")
	fs.StringVar(&opts.dataset, "dataset", "", "dataset name inside the configured data directory")
	fs.StringVar(&opts.format, "format", formatTable, "output format: table or json")
	fs.StringVar(&opts.request.TimeField, "time-field", "", "timestamp field")
	fs.StringVar(&opts.request.Target, "target", "", "target field")
	fs.StringVar(&lags, "lags", "", "comma-separated lag offsets, \"none\" to disable")
	fs.StringVar(&windows, "windows", "", "comma-separated rolling mean windows, \"none\" to disable")
	fs.StringVar(&opts.request.Mode, "mode", "", "split mode: fixed or walk_forward")
	fs.StringVar(&opts.request.TrainEnd, "train-end", "", "last timestamp of the training partition")
	fs.StringVar(&opts.request.ValEnd, "val-end", "", "last timestamp of the validation partition")
	fs.Float64Var(&initialTrainFrac, "initial-train-frac", defaults.InitialTrainFrac, "walk-forward initial training fraction")
	fs.Float64Var(&valFrac, "val-frac", defaults.ValFrac, "walk-forward validation fraction")
	fs.IntVar(&folds, "folds", defaults.NFolds, "walk-forward fold count")
	fs.BoolVar(&opts.request.SaveReport, "save", false, "write the report to the reports directory")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if (opts.file == "") == (opts.dataset == "") {
		return options{}, errors.New("exactly one of -file or -dataset is required")
	}
	if opts.format != formatTable && opts.format != formatJSON {
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}

	var err error
	if opts.request.Lags, err = parseInts("lags", lags); err != nil {
		return options{}, err
	}
	if opts.request.Windows, err = parseInts("windows", windows); err != nil {
		return options{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "initial-train-frac":
			opts.initialTrainFrac = &initialTrainFrac
		case "val-frac":
			opts.valFrac = &valFrac
		case "folds":
			opts.folds = &folds
		}
	})

	return opts, nil
}

// parseInts reads a comma-separated list. An empty value keeps the configured
// default (nil) and "none" disables the feature family (empty slice).
func parseInts(name, value string) ([]int, error) {
	value = strings.TrimSpace(value)
	switch value {
	case "":
		return nil, nil
	case "none":
		return []int{}, nil
	}

	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid -%s entry %q: must be a positive integer", name, p)
		}
		out = append(out, n)
	}
	return out, nil
}

// fileStore serves a single dataset given on the command line
type fileStore struct {
	path      string
	validator *validation.PathValidator
}

func (s fileStore) DatasetPath(string) (string, error) {
	if err := s.validator.ValidateDataset(s.path); err != nil {
		return "", err
	}
	return s.path, nil
}

func (s fileStore) ListDatasets() ([]string, error) { return []string{filepath.Base(s.path)}, nil }

func writeTable(w io.Writer, r *services.PrepareReport) error {
	fmt.Fprintf(w, "Dataset:   %s (%d rows, run %s)\n", r.Dataset, r.Rows, r.RunID)
	fmt.Fprintf(w, "Mode:      %s on %s, target %s\n", r.Mode, r.TimeField, r.Target)
	if len(r.FeatureFields) > 0 {
		fmt.Fprintf(w, "Features:  %s\n", strings.Join(r.FeatureFields, ", "))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTITION\tROWS\tSTART\tEND\tBASELINE RMSE")
	for _, p := range r.Partitions {
		writeSummary(tw, p.Name, p)
	}
	for _, f := range r.Folds {
		writeSummary(tw, fmt.Sprintf("fold %d train", f.Index), f.Train)
		writeSummary(tw, fmt.Sprintf("fold %d val", f.Index), f.Val)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nUnassigned rows: %d\n", r.Unassigned)
	if r.ReportPath != "" {
		fmt.Fprintf(w, "Report saved:    %s\n", r.ReportPath)
	}
	return nil
}

func writeSummary(w io.Writer, label string, p services.PartitionSummary) {
	baseline := "-"
	if p.Baseline != nil {
		baseline = strconv.FormatFloat(p.Baseline.RMSE, 'f', 4, 64)
	}
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", label, p.Rows, formatTime(p.Start), formatTime(p.End), baseline)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
