package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/jittakal/s3selectlab/internal/config/dto"
	"github.com/jittakal/s3selectlab/internal/encoder"
	"github.com/jittakal/s3selectlab/pkg/employee"
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	// A missing file is not an error; defaults and env still apply.
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Expand ${VAR} references so that secrets can stay out of the file.
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "s3selectlab")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Generator defaults
	l.v.SetDefault("generator.count", 100000)
	l.v.SetDefault("generator.min_age", 21)
	l.v.SetDefault("generator.max_age", 58)
	l.v.SetDefault("generator.seed", 0)

	// Store defaults. Every key needs a default for env overrides to bind.
	l.v.SetDefault("store.backend", "s3")
	l.v.SetDefault("store.bucket", "")
	l.v.SetDefault("store.bucket_prefix", "amazon-s3-select-")
	l.v.SetDefault("store.region", "us-east-1")
	l.v.SetDefault("store.endpoint", "")
	l.v.SetDefault("store.use_path_style", false)
	l.v.SetDefault("store.use_ssl", true)
	l.v.SetDefault("store.access_key_id", "")
	l.v.SetDefault("store.secret_access_key", "")
	l.v.SetDefault("store.session_token", "")
	l.v.SetDefault("store.sse_enabled", false)
	l.v.SetDefault("store.sse_kms_key_id", "")

	// Upload defaults
	l.v.SetDefault("upload.part_size_mb", 10)
	l.v.SetDefault("upload.concurrency", 5)
	l.v.SetDefault("upload.work_dir", "")
	l.v.SetDefault("upload.object_name", "employees")
	l.v.SetDefault("upload.base_path", "")

	// Format defaults
	l.v.SetDefault("formats", []string{"json", "csv", "parquet"})
	l.v.SetDefault("parquet.compression", "snappy")

	// Query overrides
	l.v.SetDefault("queries.json", "")
	l.v.SetDefault("queries.csv", "")
	l.v.SetDefault("queries.parquet", "")
	l.v.SetDefault("queries.request_progress", false)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stderr")
	l.v.SetDefault("observability.metrics.enabled", false)
	l.v.SetDefault("observability.metrics.pushgateway_url", "")
	l.v.SetDefault("observability.metrics.job", "s3selectlab")
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	// Format validation
	seen := make(map[employee.Format]bool, len(config.Formats))
	for _, name := range config.Formats {
		format, err := employee.ParseFormat(name)
		if err != nil {
			return err
		}
		if seen[format] {
			return fmt.Errorf("duplicate format: %s", format)
		}
		seen[format] = true
	}

	// Compression validation
	supported := encoder.SupportedCompressions(employee.FormatParquet)
	if !slices.Contains(supported, strings.ToLower(config.Parquet.Compression)) {
		return fmt.Errorf("unsupported parquet compression: %s (supported: %s)",
			config.Parquet.Compression, strings.Join(supported, ", "))
	}

	// Logging validation
	switch strings.ToLower(config.Observability.Logging.Format) {
	case "json", "text", "zap":
	default:
		return fmt.Errorf("unsupported logging format: %s", config.Observability.Logging.Format)
	}

	return nil
}

// Formats returns the configured formats in order. It must only be called on
// a validated configuration.
func Formats(config *dto.ApplicationConfig) []employee.Format {
	formats := make([]employee.Format, 0, len(config.Formats))
	for _, name := range config.Formats {
		if format, err := employee.ParseFormat(name); err == nil {
			formats = append(formats, format)
		}
	}
	return formats
}
