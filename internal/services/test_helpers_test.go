package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"energyforecast/internal/config"
	"energyforecast/internal/dataprocessing"
	"energyforecast/internal/infrastructure"
	"energyforecast/internal/shared/testutil"
	"energyforecast/pkg/contracts/domain"
)

// MockDatasetStore is a mock for the DatasetStore interface
type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) DatasetPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockDatasetStore) ListDatasets() ([]string, error) {
	args := m.Called()
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// MockTableLoader is a mock for the TableLoader interface
type MockTableLoader struct {
	mock.Mock
}

func (m *MockTableLoader) Load(ctx context.Context, path, timeField string) (*domain.Table, error) {
	args := m.Called(ctx, path, timeField)
	tbl, _ := args.Get(0).(*domain.Table)
	return tbl, args.Error(1)
}

// writeDailyCSV writes testutil.DailyTable(n) as name inside dir
func writeDailyCSV(t *testing.T, dir, name string, n int) {
	t.Helper()

	var b strings.Builder
	b.WriteString("Date,Production,Site\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,%d,plant-a\n", testutil.Day(i).Format("2006-01-02"), i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0644))
}

// newTestPaths creates data and reports directories under t.TempDir()
func newTestPaths(t *testing.T) *config.Paths {
	t.Helper()

	paths, err := config.GetPaths(config.PathsConfig{
		BaseDir:    t.TempDir(),
		DataDir:    "data",
		ReportsDir: "reports",
		LogsDir:    "logs",
	})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

// newFileService wires a PrepareService to real files in a temp data directory
func newFileService(t *testing.T, metrics *infrastructure.PrepareMetrics) (*PrepareService, *config.Paths) {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	paths := newTestPaths(t)
	defaults := config.Default().Forecast
	defaults.Lags = []int{1, 2}
	defaults.Windows = []int{3}

	svc := NewPrepareService(defaults, paths, dataprocessing.NewLoader(logger), metrics, logger).
		WithReportsDir(paths.ReportsDir)
	return svc, paths
}
