package config

import "time"

// DaemonConfig is the root configuration for a logger instance. It covers
// infrastructure concerns only; the CoinMarketCap request settings live in
// the working directory's config.ini and are managed by the settings package.
type DaemonConfig struct {
	WorkDir string        `yaml:"work_dir"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// APIConfig holds CoinMarketCap endpoint settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
