// Package config provides YAML-based configuration loading for the
// walkthrough runner.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ScenarioParallel   = "parallel"
	ScenarioSequential = "sequential"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name used in logs
	AppName string `mapstructure:"app_name" yaml:"app_name"`

	// RequestCount is the number of accounts the walkthrough creates
	RequestCount int `mapstructure:"request_count" yaml:"request_count"`

	// Scenarios to run, in order: parallel, sequential
	Scenarios []string `mapstructure:"scenarios" yaml:"scenarios"`

	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch"`
	Query   QueryConfig   `mapstructure:"query" yaml:"query"`
	Service ServiceConfig `mapstructure:"service" yaml:"service"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type BatchConfig struct {
	// Concurrency is the process-wide budget of in-flight calls per batch
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// SerialDeletes runs the delete step one call at a time
	SerialDeletes bool `mapstructure:"serial_deletes" yaml:"serial_deletes"`
}

type QueryConfig struct {
	AllPages   bool `mapstructure:"all_pages" yaml:"all_pages"`
	AllowEmpty bool `mapstructure:"allow_empty" yaml:"allow_empty"`
	PageSize   int  `mapstructure:"page_size" yaml:"page_size"`
}

// ServiceConfig tunes the in-memory service used by the walkthrough.
type ServiceConfig struct {
	Latency  time.Duration `mapstructure:"latency" yaml:"latency"`
	PageSize int           `mapstructure:"page_size" yaml:"page_size"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// Format: console or json
	Format string `mapstructure:"format" yaml:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs" yaml:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development" yaml:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable" yaml:"enable"`
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName:      "xrmfan",
		RequestCount: 25,
		Scenarios:    []string{ScenarioParallel},
		Batch: BatchConfig{
			Concurrency:   4,
			SerialDeletes: false,
		},
		Query: QueryConfig{
			AllPages:   true,
			AllowEmpty: true,
			PageSize:   10,
		},
		Service: ServiceConfig{
			Latency:  5 * time.Millisecond,
			PageSize: 50,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/xrmfan.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix XRMFAN and `.`/`-` are replaced with `_`.
// Example: XRMFAN_BATCH_CONCURRENCY=8
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("XRMFAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("request_count", cfg.RequestCount)
	v.SetDefault("scenarios", cfg.Scenarios)
	v.SetDefault("batch.concurrency", cfg.Batch.Concurrency)
	v.SetDefault("batch.serial_deletes", cfg.Batch.SerialDeletes)
	v.SetDefault("query.all_pages", cfg.Query.AllPages)
	v.SetDefault("query.allow_empty", cfg.Query.AllowEmpty)
	v.SetDefault("query.page_size", cfg.Query.PageSize)
	v.SetDefault("service.latency", cfg.Service.Latency)
	v.SetDefault("service.page_size", cfg.Service.PageSize)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("XRMFAN_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xrmfan")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".xrmfan"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("invalid batch.concurrency: %d (must be at least 1)", c.Batch.Concurrency)
	}
	if c.RequestCount < 0 {
		return fmt.Errorf("invalid request_count: %d", c.RequestCount)
	}
	if c.Service.Latency < 0 {
		return fmt.Errorf("invalid service.latency: %s", c.Service.Latency)
	}

	for i, s := range c.Scenarios {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case ScenarioParallel, ScenarioSequential:
		default:
			return fmt.Errorf("unknown scenario %q", c.Scenarios[i])
		}
		c.Scenarios[i] = s
	}
	if len(c.Scenarios) == 0 {
		c.Scenarios = []string{ScenarioParallel}
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}
	return nil
}

// YAML renders the configuration in the same layout Load reads.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}
