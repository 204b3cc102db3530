// Package config loads and validates the lmod-proxy configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the lmod-proxy configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (LMODP_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Auth configures the basic-auth credential store
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Gradebook configures the remote gradebook client
	Gradebook GradebookConfig `mapstructure:"gradebook" yaml:"gradebook"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the proxy HTTP server.
type ServerConfig struct {
	// Host is the listen address. Empty means all interfaces.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the HTTP listen port.
	// Default: 5000
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including an uploaded grade file.
	// Default: 30s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 60s (grade imports can be slow on the remote side)
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AuthConfig configures the htpasswd-backed credential store.
type AuthConfig struct {
	// HtpasswdPath is the path to the htpasswd credentials file
	// (one username:bcrypt-hash entry per line, as written by htpasswd -B).
	// A missing file yields an empty store: the server starts but every
	// authentication attempt fails.
	HtpasswdPath string `mapstructure:"htpasswd_path" yaml:"htpasswd_path"`

	// Watch reloads the htpasswd file when it changes on disk.
	// Default: false
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// GradebookConfig configures the remote gradebook client.
type GradebookConfig struct {
	// URLBase is the base URL of the remote gradebook API that accepts
	// certificate authentication.
	// Default: https://learning-modules.mit.edu:8443/
	URLBase string `mapstructure:"urlbase" validate:"required,url" yaml:"urlbase"`

	// Cert is the path to an un-passphrased combined key-and-certificate
	// PEM file used for client certificate authentication.
	Cert string `mapstructure:"cert" yaml:"cert"`

	// Timeout bounds each remote call. A timed-out call is reported as a
	// remote-unavailable failure, never left hanging.
	// Default: 300s (spreadsheet imports are slow)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// ApproveGrades approves imported grades automatically on the remote
	// side. This is server policy: it is never taken from the request.
	// Default: false
	ApproveGrades bool `mapstructure:"approve_grades" yaml:"approve_grades"`

	// CreateAssignments pre-creates an assignment record before each
	// spreadsheet import, for remote deployments that require explicit
	// assignment metadata.
	// Default: false
	CreateAssignments bool `mapstructure:"create_assignments" yaml:"create_assignments"`

	// MaxPointsColumn is the spreadsheet column holding per-assignment
	// maximum points, passed through to the import call.
	// Default: max_pts
	MaxPointsColumn string `mapstructure:"max_points_column" yaml:"max_points_column"`

	// NormalizeColumn is the spreadsheet column holding the normalization
	// flag, passed through to the import call.
	// Default: normalize
	NormalizeColumn string `mapstructure:"normalize_column" yaml:"normalize_column"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics listener is started.
type MetricsConfig struct {
	// Enabled controls whether the metrics listener is started
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the /metrics endpoint.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LMODP_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string searches default locations)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)
	registerDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and config file search.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the LMODP_ prefix with underscores,
	// e.g. LMODP_GRADEBOOK_URLBASE or LMODP_AUTH_HTPASSWD_PATH.
	v.SetEnvPrefix("LMODP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	// Default search: working directory, then user config, then /etc.
	v.SetConfigName("lmod_proxy")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "lmod-proxy"))
	}
	v.AddConfigPath("/etc/lmod-proxy")
}

// registerDefaults registers every config key with viper so AutomaticEnv
// can resolve LMODP_* overrides even when the key is absent from the file.
func registerDefaults(v *viper.Viper) {
	for key, value := range defaultSettings() {
		v.SetDefault(key, value)
	}
}

// readConfigFile reads the configuration file if one exists.
// A missing file is not an error: defaults and environment apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configDecodeHooks returns the combined decode hook for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings like "30s" or "5m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch val := data.(type) {
		case string:
			return time.ParseDuration(val)
		case int:
			return time.Duration(val), nil
		case int64:
			return time.Duration(val), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(val), nil
		default:
			return data, nil
		}
	}
}

// SaveConfig saves the configuration to the given path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config may reference credential material; restrict to the owner.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
