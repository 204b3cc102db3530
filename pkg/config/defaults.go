package config

import (
	"strings"
	"time"
)

// Built-in defaults. The URL base matches the production MIT Learning
// Modules endpoint that accepts certificate authentication.
const (
	DefaultURLBase         = "https://learning-modules.mit.edu:8443/"
	DefaultPort            = 5000
	DefaultMetricsPort     = 9090
	DefaultMaxPointsColumn = "max_pts"
	DefaultNormalizeColumn = "normalize"
)

// defaultSettings returns the flat key/value defaults registered with viper.
// Keeping these in one place makes every key resolvable from LMODP_*
// environment variables regardless of the config file contents.
func defaultSettings() map[string]any {
	return map[string]any{
		"logging.level":  "INFO",
		"logging.format": "text",
		"logging.output": "stdout",

		"server.host":             "",
		"server.port":             DefaultPort,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "30s",

		"auth.htpasswd_path": "",
		"auth.watch":         false,

		"gradebook.urlbase":            DefaultURLBase,
		"gradebook.cert":               "",
		"gradebook.timeout":            "300s",
		"gradebook.approve_grades":     false,
		"gradebook.create_assignments": false,
		"gradebook.max_points_column":  DefaultMaxPointsColumn,
		"gradebook.normalize_column":   DefaultNormalizeColumn,

		"metrics.enabled": false,
		"metrics.port":    DefaultMetricsPort,
	}
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This runs after loading from file and environment so a partially specified
// config still yields a runnable server. Zero values are replaced; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyGradebookDefaults(&cfg.Gradebook)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyGradebookDefaults(cfg *GradebookConfig) {
	if cfg.URLBase == "" {
		cfg.URLBase = DefaultURLBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.MaxPointsColumn == "" {
		cfg.MaxPointsColumn = DefaultMaxPointsColumn
	}
	if cfg.NormalizeColumn == "" {
		cfg.NormalizeColumn = DefaultNormalizeColumn
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config with every default applied.
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}
	return cfg
}
