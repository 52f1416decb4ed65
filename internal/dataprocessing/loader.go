package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"energyforecast/pkg/contracts/domain"
)

// Supported table file extensions
const (
	ExtCSV     = ".csv"
	ExtXLSX    = ".xlsx"
	ExtParquet = ".parquet"
)

// DefaultConcurrency bounds how many files of a directory are read at once
const DefaultConcurrency = 4

var (
	// ErrUnsupportedFormat is returned for files whose extension has no reader
	ErrUnsupportedFormat = errors.New("unsupported table format")
	// ErrNoData is returned for files without a header or without data rows
	ErrNoData = errors.New("no data rows")
)

// Loader reads tables from CSV, Excel and Parquet files.
type Loader struct {
	logger      *slog.Logger
	concurrency int
}

// NewLoader creates a loader that logs through logger
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:      logger.With("component", "loader"),
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency sets the number of files read in parallel for directory loads
func (l *Loader) WithConcurrency(n int) *Loader {
	if n < 1 {
		n = 1
	}
	l.concurrency = n
	return l
}

// LoadTable loads path with the default loader.
func LoadTable(ctx context.Context, path, timeField string) (*domain.Table, error) {
	return NewLoader(slog.Default()).Load(ctx, path, timeField)
}

// SupportedFile reports whether name has an extension the loader can read
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtCSV, ExtXLSX, ExtParquet:
		return true
	}
	return false
}

// Load reads a file, or every supported file of a directory, into a table.
//
// Values of timeField are parsed as timestamps and unparseable ones become missing.
// Other columns are typed float64 when every non-empty cell is numeric and string
// otherwise. When timeField is present the table is returned sorted by it.
func (l *Loader) Load(ctx context.Context, path, timeField string) (*domain.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var raw *rawTable
	if info.IsDir() {
		raw, err = l.loadDir(ctx, path)
	} else {
		raw, err = l.loadFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	tbl := raw.toTable(timeField)
	if tbl.HasField(timeField) {
		tbl = tbl.SortByTime(timeField)
	} else {
		l.logger.WarnContext(ctx, "time field not present, keeping file order",
			"path", path,
			"time_field", timeField,
		)
	}

	l.logger.InfoContext(ctx, "table loaded",
		"path", path,
		"rows", tbl.Len(),
		"fields", len(tbl.Fields()),
	)

	return tbl, nil
}

func (l *Loader) loadFile(ctx context.Context, path string) (*rawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var (
		raw *rawTable
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtCSV:
		raw, err = readCSV(path)
	case ExtXLSX:
		raw, err = readXLSX(path)
	case ExtParquet:
		raw, err = readParquet(path)
	default:
		return nil, fmt.Errorf("load %s: %w: %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	l.logger.DebugContext(ctx, "file read",
		"path", path,
		"rows", len(raw.rows),
		"fields", len(raw.fields),
	)
	return raw, nil
}

// loadDir reads the supported files of dir in parallel and concatenates them in
// file name order.
func (l *Loader) loadDir(ctx context.Context, dir string) (*rawTable, error) {
	files, err := findTableFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("find table files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("load %s: %w: no supported files in directory", dir, ErrNoData)
	}

	l.logger.InfoContext(ctx, "loading directory",
		"dir", dir,
		"files", len(files),
		"concurrency", l.concurrency,
	)

	parts := make([]*rawTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, file := range files {
		g.Go(func() error {
			raw, err := l.loadFile(gctx, file)
			if err != nil {
				return err
			}
			parts[i] = raw
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return concatRaw(parts), nil
}

func findTableFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !SupportedFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
