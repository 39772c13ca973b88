package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWorkDir     = "."
	DefaultLogLevel    = "info"
	DefaultBaseURL     = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/listings/latest"
	DefaultAPITimeout  = 5 * time.Second
	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *DaemonConfig) applyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
