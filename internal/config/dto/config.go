package dto

import (
	"fmt"
	"strings"
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Generator     GeneratorConfig     `mapstructure:"generator"`
	Store         StoreConfig         `mapstructure:"store"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Formats       []string            `mapstructure:"formats"`
	Parquet       ParquetConfig       `mapstructure:"parquet"`
	Queries       QueriesConfig       `mapstructure:"queries"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// GeneratorConfig contains synthetic record settings.
// Ages are drawn from [MinAge, MaxAge).
type GeneratorConfig struct {
	Count  int   `mapstructure:"count"`
	MinAge int   `mapstructure:"min_age"`
	MaxAge int   `mapstructure:"max_age"`
	Seed   int64 `mapstructure:"seed"`
}

// StoreConfig contains object store settings
type StoreConfig struct {
	Backend         string `mapstructure:"backend"`
	Bucket          string `mapstructure:"bucket"`
	BucketPrefix    string `mapstructure:"bucket_prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	SSEEnabled      bool   `mapstructure:"sse_enabled"`
	SSEKMSKeyID     string `mapstructure:"sse_kms_key_id"`
}

// UploadConfig contains upload and object naming settings
type UploadConfig struct {
	PartSizeMB  int64  `mapstructure:"part_size_mb"`
	Concurrency int    `mapstructure:"concurrency"`
	WorkDir     string `mapstructure:"work_dir"`
	ObjectName  string `mapstructure:"object_name"`
	BasePath    string `mapstructure:"base_path"`
}

// ParquetConfig contains Parquet format settings
type ParquetConfig struct {
	Compression string `mapstructure:"compression"`
}

// QueriesConfig overrides the default filter expression per format.
type QueriesConfig struct {
	JSON            string `mapstructure:"json"`
	CSV             string `mapstructure:"csv"`
	Parquet         string `mapstructure:"parquet"`
	RequestProgress bool   `mapstructure:"request_progress"`
}

// Expression returns the configured override for format, or "".
func (c QueriesConfig) Expression(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return c.JSON
	case "csv":
		return c.CSV
	case "parquet":
		return c.Parquet
	default:
		return ""
	}
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains Pushgateway settings
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Application.Name == "" {
		return fmt.Errorf("application name is required")
	}
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one format is required")
	}
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("observability.metrics.pushgateway_url is required when metrics are enabled")
	}
	return nil
}

// Validate validates generator configuration.
func (c *GeneratorConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("generator count must not be negative: %d", c.Count)
	}
	if c.MinAge < 0 || c.MinAge >= c.MaxAge {
		return fmt.Errorf("generator age range [%d, %d) is empty", c.MinAge, c.MaxAge)
	}
	return nil
}

// Validate validates store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "s3":
		if c.Region == "" {
			return fmt.Errorf("store region is required for s3 backend")
		}
	case "minio":
		if c.Endpoint == "" {
			return fmt.Errorf("store endpoint is required for minio backend")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Backend)
	}
	if c.Bucket == "" && c.BucketPrefix == "" {
		return fmt.Errorf("store bucket or bucket_prefix is required")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("store access_key_id and secret_access_key must be set together")
	}
	return nil
}
