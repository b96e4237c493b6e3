package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DaemonConfig holds daemon-specific settings.
type DaemonConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
}

// PoolConfig holds worker pool settings.
type PoolConfig struct {
	Workers int `yaml:"workers"` // default: runtime.NumCPU()-1
}

// RenderDefaultsConfig holds the defaults applied when a request omits the
// corresponding optional field.
type RenderDefaultsConfig struct {
	Strategy   string `yaml:"strategy"`    // NAIVE, DYNAMIC_BLOCK, DYNAMIC_BLOCK_THREADED, DYNAMIC_BLOCK_THREADED_INCREMENTAL
	Handler    string `yaml:"handler"`     // SYNCHRONOUS, PIPELINED, ASYNCHRONOUS
	PNGEncoder string `yaml:"png_encoder"` // A, B
	Precision  string `yaml:"precision"`   // SINGLE, DOUBLE
}

// SaveConfig holds the save/load/list file-store settings.
type SaveConfig struct {
	Directory string `yaml:"directory"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled          bool      `yaml:"enabled"`
	Namespace        string    `yaml:"namespace"`
	HistogramBuckets []float64 `yaml:"histogram_buckets"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Config is the central configuration struct embedding all component configs.
type Config struct {
	Daemon   DaemonConfig         `yaml:"daemon"`
	Pool     PoolConfig           `yaml:"pool"`
	Defaults RenderDefaultsConfig `yaml:"defaults"`
	Save     SaveConfig           `yaml:"save"`
	Metrics  MetricsConfig        `yaml:"metrics"`
	Logging  LoggingConfig        `yaml:"logging"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return &Config{
		Daemon: DaemonConfig{
			HTTPAddr: ":8080",
			LogLevel: "info",
		},
		Pool: PoolConfig{
			Workers: workers,
		},
		Defaults: RenderDefaultsConfig{
			Strategy:   "DYNAMIC_BLOCK_THREADED_INCREMENTAL",
			Handler:    "SYNCHRONOUS",
			PNGEncoder: "A",
			Precision:  "SINGLE",
		},
		Save: SaveConfig{
			Directory: "./fractal-saves",
		},
		Metrics: MetricsConfig{
			Enabled:          true,
			Namespace:        "fractalserver",
			HistogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file, starting from
// DefaultConfig so a file only needs to set the fields it wants to
// override.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FRACTAL_HTTP_ADDR"); v != "" {
		cfg.Daemon.HTTPAddr = v
	}
	if v := os.Getenv("FRACTAL_LOG_LEVEL"); v != "" {
		cfg.Daemon.LogLevel = v
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FRACTAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FRACTAL_POOL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.Workers = n
		}
	}
	if v := os.Getenv("FRACTAL_SAVE_DIR"); v != "" {
		cfg.Save.Directory = v
	}
	if v := os.Getenv("FRACTAL_DEFAULT_STRATEGY"); v != "" {
		cfg.Defaults.Strategy = v
	}
	if v := os.Getenv("FRACTAL_DEFAULT_HANDLER"); v != "" {
		cfg.Defaults.Handler = v
	}
	if v := os.Getenv("FRACTAL_DEFAULT_PNG_ENCODER"); v != "" {
		cfg.Defaults.PNGEncoder = v
	}
	if v := os.Getenv("FRACTAL_DEFAULT_PRECISION"); v != "" {
		cfg.Defaults.Precision = v
	}
	if v := os.Getenv("FRACTAL_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("FRACTAL_METRICS_NAMESPACE"); v != "" {
		cfg.Metrics.Namespace = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}
