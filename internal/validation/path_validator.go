// Package validation checks the directories and dataset paths the service
// reads from and writes to.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/infrastructure"
)

// PathValidator validates data and report locations
type PathValidator struct {
	logger *slog.Logger
}

// NewPathValidator creates a path validator
func NewPathValidator(logger *slog.Logger) *PathValidator {
	return &PathValidator{logger: infrastructure.WithComponent(logger, "path_validator")}
}

// ValidateDataDir checks that dir is a readable directory and returns how many
// loadable dataset files it holds. An empty directory is not an error.
func (v *PathValidator) ValidateDataDir(dir string) (int, error) {
	if err := v.requireDir(dir); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Error("Data directory is not readable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("data directory %s is not readable: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && dataprocessing.SupportedFile(e.Name()) {
			count++
		}
	}

	v.logger.Debug("Data directory validated",
		slog.String("directory", dir),
		slog.Int("datasets", count))
	return count, nil
}

// ValidateReportsDir ensures dir exists or can be created, and is writable
func (v *PathValidator) ValidateReportsDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create reports directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Reports directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("reports directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

// ValidateDataset checks that path is a supported dataset file, or a directory
// holding at least one.
func (v *PathValidator) ValidateDataset(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Dataset not accessible",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("dataset %s: %w", path, err)
	}

	if info.IsDir() {
		count, err := v.ValidateDataDir(path)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("dataset directory %s: %w", path, dataprocessing.ErrNoData)
		}
		return nil
	}

	if !dataprocessing.SupportedFile(path) {
		return fmt.Errorf("dataset %s: %w", filepath.Base(path), dataprocessing.ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dataset %s is not readable: %w", path, err)
	}
	f.Close()

	v.logger.Debug("Dataset validated",
		slog.String("path", path),
		slog.Int64("size", info.Size()))
	return nil
}

func (v *PathValidator) requireDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Directory does not exist", slog.String("directory", dir))
		return fmt.Errorf("directory %s does not exist: %w", dir, err)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
