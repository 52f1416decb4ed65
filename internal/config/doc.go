// Package config provides centralized configuration management for the forecast
// data preparation tools. It loads configuration from multiple sources, validates it,
// and resolves the directories the tools read from and write to.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FORECAST_<SECTION>_<FIELD>:
//
//	FORECAST_SERVER_PORT=8080
//	FORECAST_LOGGING_LEVEL=debug
//	FORECAST_PATHS_DATA_DIR=/srv/energy/data
//	FORECAST_RUN_TARGET=Production
//	FORECAST_RUN_LAGS=1,24,168
//	FORECAST_RUN_WALK_FORWARD_N_FOLDS=6
//
// # Configuration File
//
// The first of config.yaml, configs/config.yaml, ../configs/config.yaml and
// ../../configs/config.yaml that exists is used, unless LoadFrom is given a path.
//
//	forecast:
//	  time_field: Date
//	  target: Production
//	  mode: walk_forward
//	  walk_forward:
//	    initial_train_frac: 0.5
//	    val_frac: 0.1
//	    n_folds: 4
//
// # Validation
//
// Struct fields carry validator tags; split parameters are additionally checked
// by the split package so they are reported with their own names.
//
// # Path Management
//
// GetPaths resolves the configured directories against a base directory.
// Datasets are addressed by bare name inside the data directory:
//
//	paths, _ := config.GetPaths(cfg.Paths)
//	file, err := paths.DatasetPath("plant_a.csv")
package config
