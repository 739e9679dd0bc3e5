// Package config defines the store gateway configuration.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete store configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig defines the gRPC listener settings.
type ServerConfig struct {
	GRPCAddress      string        `yaml:"grpc_address"`
	GracePeriod      time.Duration `yaml:"grace_period"`       // graceful shutdown deadline
	KeepaliveTime    time.Duration `yaml:"keepalive_time"`     // server keepalive ping interval
	KeepaliveTimeout time.Duration `yaml:"keepalive_timeout"`  // keepalive ack timeout
}

// StoreConfig defines where block data comes from and how the store
// identifies itself.
type StoreConfig struct {
	// BlockDir holds s2-compressed JSON block files loaded at startup.
	// Empty means the store starts with no data and is fed via the API.
	BlockDir string `yaml:"block_dir"`

	// ExternalLabels are attached to the store's Info response.
	ExternalLabels map[string]string `yaml:"external_labels"`
}

// LimitsConfig bounds the work a single Series request may cause.
// Zero values mean unlimited.
type LimitsConfig struct {
	MaxSeriesPerRequest int     `yaml:"max_series_per_request"`
	RequestRate         float64 `yaml:"request_rate"`  // Series RPCs per second
	RequestBurst        int     `yaml:"request_burst"` // token bucket burst, defaults to 1 when rate is set
	MatcherCacheSize    int     `yaml:"matcher_cache_size"`
}

// LoggingConfig defines logger settings
type LoggingConfig struct {
	Level    string            `yaml:"level"`
	Output   string            `yaml:"output"` // empty or "stderr"/"stdout", otherwise a file path
	Rotation LogRotationConfig `yaml:"rotation"`
}

// LogRotationConfig defines log file rotation settings (powered by lumberjack).
type LogRotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // max megabytes before rotation (default 100)
	MaxBackups int  `yaml:"max_backups"` // old rotated files to keep (default 3)
	MaxAge     int  `yaml:"max_age"`     // days to retain old files (default 28)
	Compress   bool `yaml:"compress"`    // gzip rotated files
	LocalTime  bool `yaml:"local_time"`  // use local time in backup filenames
}

// TracingConfig defines OpenTelemetry tracing settings
type TracingConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	ServiceName string            `yaml:"service_name"`
	SampleRate  float64           `yaml:"sample_rate"` // 0.0 to 1.0
	Insecure    bool              `yaml:"insecure"`    // use insecure gRPC connection
	Headers     map[string]string `yaml:"headers"`     // extra headers for OTLP exporter
}

// MetricsConfig defines the Prometheus metrics HTTP listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DefaultConfig returns a config with sane defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCAddress:      ":10901",
			GracePeriod:      30 * time.Second,
			KeepaliveTime:    2 * time.Hour,
			KeepaliveTimeout: 20 * time.Second,
		},
		Limits: LimitsConfig{
			MatcherCacheSize: 256,
		},
		Logging: LoggingConfig{
			Level: "info",
			Rotation: LogRotationConfig{
				MaxSize:    100,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		Tracing: TracingConfig{
			ServiceName: "thanos-store",
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":10902",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.GRPCAddress == "" {
		return fmt.Errorf("server.grpc_address is required")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	if c.Limits.MaxSeriesPerRequest < 0 {
		return fmt.Errorf("limits.max_series_per_request must not be negative")
	}
	if c.Limits.RequestRate < 0 {
		return fmt.Errorf("limits.request_rate must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}
	return nil
}
