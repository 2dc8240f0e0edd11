// Package config loads fileshared's static startup configuration,
// grounded on the teacher's pkg/config package: viper-backed layered
// loading (defaults -> file -> environment -> CLI flags) with
// mapstructure struct tags and go-playground/validator validation,
// trimmed to the settings this server actually has (spec.md is silent
// on dynamic share/group/adapter config, so none of that survives
// here - see SPEC_FULL.md §11).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is fileshared's full static configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Blob     BlobConfig     `mapstructure:"blob" validate:"required"`
	Logging  LoggingConfig  `mapstructure:"logging" validate:"required"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig controls the wire-protocol listener.
type ServerConfig struct {
	// Addr is the "host:port" the wire-protocol listener binds.
	Addr string `mapstructure:"addr" validate:"required"`

	// ShutdownTimeout bounds the graceful-drain window (spec.md §4.6: "~5s").
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// DatabaseConfig selects and configures the metadata store backend.
type DatabaseConfig struct {
	// Backend selects the metadata.Store implementation.
	Backend string `mapstructure:"backend" validate:"required,oneof=sqlite postgres"`

	// DSN is the sqlite file path or the postgres connection string.
	DSN string `mapstructure:"dsn" validate:"required"`
}

// BlobConfig selects and configures the blob.Store backend.
type BlobConfig struct {
	// Backend selects the blob.Store implementation.
	Backend string       `mapstructure:"backend" validate:"required,oneof=fs badger s3"`
	FS      FSConfig     `mapstructure:"fs"`
	Badger  BadgerConfig `mapstructure:"badger"`
	S3      S3Config     `mapstructure:"s3"`
}

// FSConfig configures the local-disk blob backend.
type FSConfig struct {
	// Path is the root directory blobs are sharded under.
	Path string `mapstructure:"path"`
}

// BadgerConfig configures the embedded KV blob backend.
type BadgerConfig struct {
	// Path is the badger data directory.
	Path string `mapstructure:"path"`
}

// S3Config configures the remote blob backend.
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format is the log line encoding.
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output is "stdout", "stderr", or a file path (server.log).
	Output string `mapstructure:"output" validate:"required"`
}

// AdminConfig configures the admin HTTP surface (C11).
type AdminConfig struct {
	// Addr is the "host:port" /healthz and /metrics are served on.
	// Empty disables the admin HTTP server entirely.
	Addr string `mapstructure:"addr"`
}

// MetricsConfig controls Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from configPath (or the default search
// path if empty), applies environment and CLI overrides already bound
// into v, and validates the result. CLI flags must be bound onto v by
// the caller (cmd/fileshared's cobra+viper wiring) before Load runs,
// so flag values take precedence over file and env values per spec.md
// §6's precedence order.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)
	setupEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
		}
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("fileshared")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.backend", "sqlite")
	v.SetDefault("database.dsn", "fileshared.db")
	v.SetDefault("blob.backend", "fs")
	v.SetDefault("blob.fs.path", "./blobs")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "server.log")
	v.SetDefault("admin.addr", "127.0.0.1:9122")
	v.SetDefault("metrics.enabled", false)
}

// setupEnv wires FILESHARED_-prefixed environment overrides, matching
// the teacher's DITTOFS_ convention (spec.md §6 names FILESHARED_ as
// this service's prefix).
func setupEnv(v *viper.Viper) {
	v.SetEnvPrefix("FILESHARED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate runs struct-tag validation via go-playground/validator,
// matching the teacher's config validation contract, then checks the
// cross-field constraints struct tags cannot express: the blob config
// section matching the selected backend must be filled in.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	switch cfg.Blob.Backend {
	case "fs":
		if cfg.Blob.FS.Path == "" {
			return fmt.Errorf("blob.fs.path is required when blob.backend is fs")
		}
	case "badger":
		if cfg.Blob.Badger.Path == "" {
			return fmt.Errorf("blob.badger.path is required when blob.backend is badger")
		}
	case "s3":
		if cfg.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required when blob.backend is s3")
		}
	}
	return nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fileshared")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fileshared")
}
