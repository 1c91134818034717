package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports an invalid or missing configuration value. It is
// fatal at startup and never attributed to an individual device.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Duration wraps time.Duration so YAML values parse from either a Go
// duration string ("30s") or a bare number of seconds
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		if parsed, err := time.ParseDuration(s); err == nil {
			*d = Duration(parsed)
			return nil
		}
	}
	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", value.Value)
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Thresholds holds the externally settable rule thresholds. The historical
// TBD values live here and are never hard-coded in the rule table.
type Thresholds struct {
	MediaErrors         int64   `yaml:"mediaErrors"`
	CriticalTempMinutes int64   `yaml:"criticalTempMinutes"`
	WarningTempMinutes  int64   `yaml:"warningTempMinutes"`
	HeavyUseTBPerYear   float64 `yaml:"heavyUseTBPerYear"`
}

// Batch holds the batch coordinator settings
type Batch struct {
	Workers       int      `yaml:"workers"`
	DeviceTimeout Duration `yaml:"deviceTimeout"`
}

// Scan holds the device discovery settings
type Scan struct {
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	IgnoreSATA bool     `yaml:"ignoreSATA"`
	IgnoreSAS  bool     `yaml:"ignoreSAS"`
	IgnoreNVMe bool     `yaml:"ignoreNVMe"`
}

// Report holds the report renderer settings
type Report struct {
	Directory   string `yaml:"directory"`
	Format      string `yaml:"format"`
	MetricsFile string `yaml:"metricsFile"`
}

// Config holds the application configuration
type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`
	Batch      Batch      `yaml:"batch"`
	Scan       Scan       `yaml:"scan"`
	Report     Report     `yaml:"report"`
	LogLevel   string     `yaml:"logLevel"`
}

// Default returns the documented default configuration
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			MediaErrors:         10,
			CriticalTempMinutes: 0,
			WarningTempMinutes:  60,
			HeavyUseTBPerYear:   550,
		},
		Batch: Batch{
			Workers:       4,
			DeviceTimeout: Duration(30 * time.Second),
		},
		Report: Report{
			Directory: "reports",
			Format:    "csv",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// GRADER_* environment overrides, then validates it. An empty path skips the
// file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every threshold and setting, returning a
// ConfigurationError for the first violation found
func (c *Config) Validate() error {
	if c.Thresholds.MediaErrors < 0 {
		return &ConfigurationError{Field: "thresholds.mediaErrors", Reason: "must not be negative"}
	}
	if c.Thresholds.CriticalTempMinutes < 0 {
		return &ConfigurationError{Field: "thresholds.criticalTempMinutes", Reason: "must not be negative"}
	}
	if c.Thresholds.WarningTempMinutes < 0 {
		return &ConfigurationError{Field: "thresholds.warningTempMinutes", Reason: "must not be negative"}
	}
	if c.Thresholds.HeavyUseTBPerYear <= 0 {
		return &ConfigurationError{Field: "thresholds.heavyUseTBPerYear", Reason: "must be positive"}
	}
	if c.Batch.Workers < 1 {
		return &ConfigurationError{Field: "batch.workers", Reason: "must be at least 1"}
	}
	if c.Batch.DeviceTimeout.Std() <= 0 {
		return &ConfigurationError{Field: "batch.deviceTimeout", Reason: "must be positive"}
	}
	switch c.Report.Format {
	case "csv", "json", "table":
	default:
		return &ConfigurationError{Field: "report.format", Reason: fmt.Sprintf("unsupported format %q", c.Report.Format)}
	}
	if c.Report.Directory == "" {
		return &ConfigurationError{Field: "report.directory", Reason: "must not be empty"}
	}
	return nil
}

// applyEnv overlays GRADER_* environment variables onto the configuration.
// A present but unparseable value is a ConfigurationError, not a silent
// fallback.
func (c *Config) applyEnv() error {
	var err error
	if c.Thresholds.MediaErrors, err = getEnvInt64("GRADER_MEDIA_ERROR_THRESHOLD", c.Thresholds.MediaErrors); err != nil {
		return err
	}
	if c.Thresholds.CriticalTempMinutes, err = getEnvInt64("GRADER_CRITICAL_TEMP_MINUTES", c.Thresholds.CriticalTempMinutes); err != nil {
		return err
	}
	if c.Thresholds.WarningTempMinutes, err = getEnvInt64("GRADER_WARNING_TEMP_MINUTES", c.Thresholds.WarningTempMinutes); err != nil {
		return err
	}
	if c.Thresholds.HeavyUseTBPerYear, err = getEnvFloat("GRADER_HEAVY_USE_TB_PER_YEAR", c.Thresholds.HeavyUseTBPerYear); err != nil {
		return err
	}
	if c.Batch.Workers, err = getEnvInt("GRADER_WORKERS", c.Batch.Workers); err != nil {
		return err
	}
	timeout, err := getEnvDuration("GRADER_DEVICE_TIMEOUT", c.Batch.DeviceTimeout.Std())
	if err != nil {
		return err
	}
	c.Batch.DeviceTimeout = Duration(timeout)
	c.Report.Directory = getEnv("GRADER_REPORT_DIR", c.Report.Directory)
	c.Report.Format = getEnv("GRADER_REPORT_FORMAT", c.Report.Format)
	c.Report.MetricsFile = getEnv("GRADER_METRICS_FILE", c.Report.MetricsFile)
	c.LogLevel = getEnv("GRADER_LOG_LEVEL", c.LogLevel)
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ConfigurationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}

// getEnvInt64 gets an int64 environment variable with a default value
func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ConfigurationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &ConfigurationError{Field: key, Reason: "must be numeric"}
	}
	return f, nil
}

// getEnvDuration gets a duration environment variable with a default value.
// Accepts Go duration strings and bare second counts.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return 0, &ConfigurationError{Field: key, Reason: "must be a duration or seconds"}
}
