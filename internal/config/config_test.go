package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyforecast/internal/split"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, "none", cfg.Telemetry.TracesExporter)

				assert.Equal(t, "Date", cfg.Forecast.TimeField)
				assert.Equal(t, "Production", cfg.Forecast.Target)
				assert.Equal(t, []int{1, 24}, cfg.Forecast.Lags)
				assert.Equal(t, []int{24}, cfg.Forecast.Windows)
				assert.Equal(t, ModeFixed, cfg.Forecast.Mode)
				assert.Equal(t, split.DefaultWalkForwardConfig(), cfg.Forecast.WalkForward)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
  read_timeout: 30s
logging:
  level: debug
forecast:
  target: Load
  mode: walk_forward
  walk_forward:
    n_folds: 6
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout, "untouched default")
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "Load", cfg.Forecast.Target)
				assert.Equal(t, "Date", cfg.Forecast.TimeField)
				assert.Equal(t, ModeWalkForward, cfg.Forecast.Mode)
				assert.Equal(t, 6, cfg.Forecast.WalkForward.NFolds)
				assert.Equal(t, 0.5, cfg.Forecast.WalkForward.InitialTrainFrac)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9090\nforecast:\n  target: Load\n",
			env: map[string]string{
				"FORECAST_SERVER_PORT":                         "7070",
				"FORECAST_RUN_LAGS":                            "1,2,3",
				"FORECAST_RUN_WALK_FORWARD_VAL_FRAC":           "0.2",
				"FORECAST_SECURITY_RATE_LIMIT_ENABLED":         "false",
				"FORECAST_TELEMETRY_TRACES_EXPORTER":           "stdout",
				"FORECAST_TELEMETRY_SAMPLE_RATIO":              "0.5",
				"FORECAST_RUN_WALK_FORWARD_INITIAL_TRAIN_FRAC": "0.6",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "Load", cfg.Forecast.Target)
				assert.Equal(t, []int{1, 2, 3}, cfg.Forecast.Lags)
				assert.Equal(t, 0.2, cfg.Forecast.WalkForward.ValFrac)
				assert.Equal(t, 0.6, cfg.Forecast.WalkForward.InitialTrainFrac)
				assert.False(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "stdout", cfg.Telemetry.TracesExporter)
				assert.Equal(t, 0.5, cfg.Telemetry.SampleRatio)
				assert.Equal(t, "development", cfg.Telemetry.Environment)
			},
		},
		{
			name:    "sample ratio above one",
			file:    "telemetry:\n  sample_ratio: 2\n",
			wantErr: true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"FORECAST_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			file:    "logging:\n  level: verbose\n",
			wantErr: true,
		},
		{
			name:    "invalid split mode",
			env:     map[string]string{"FORECAST_RUN_MODE": "random"},
			wantErr: true,
		},
		{
			name:    "invalid walk-forward fraction",
			file:    "forecast:\n  mode: walk_forward\n  walk_forward:\n    val_frac: 1.5\n",
			wantErr: true,
		},
		{
			name:    "unparseable boundary",
			env:     map[string]string{"FORECAST_RUN_TRAIN_END": "soon"},
			wantErr: true,
		},
		{
			name:    "zero lag",
			env:     map[string]string{"FORECAST_RUN_LAGS": "1,0"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			} else {
				// keep the lookup away from any config.yaml in the package directory
				t.Chdir(t.TempDir())
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFindsConfigInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 8181\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().validate())
}
