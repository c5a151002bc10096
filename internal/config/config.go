// Package config loads CLI settings from defaults, an optional YAML file and
// SUSHRUSHA_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SUSHRUSHA_"

// DefaultFile is read when Load is called without an explicit path and the
// file exists in the working directory.
const DefaultFile = "sushrusha.yaml"

// Device store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config is the full CLI configuration.
type Config struct {
	APIURL            string        `mapstructure:"api_url" env:"API_URL"`
	Language          string        `mapstructure:"language" env:"LANGUAGE"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" env:"REQUEST_TIMEOUT"`
	PresentationDelay time.Duration `mapstructure:"presentation_delay" env:"PRESENTATION_DELAY"`
	HistoryLimit      int           `mapstructure:"history_limit" env:"HISTORY_LIMIT"`
	MetricsAddr       string        `mapstructure:"metrics_addr" env:"METRICS_ADDR"`

	Device    DeviceConfig    `mapstructure:"device" envPrefix:"DEVICE_"`
	Log       LogConfig       `mapstructure:"log" envPrefix:"LOG_"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator" envPrefix:"EVALUATOR_"`
}

// DeviceConfig selects where the device identifier is kept.
type DeviceConfig struct {
	Store         string `mapstructure:"store" env:"STORE"`
	Path          string `mapstructure:"path" env:"PATH"`
	RedisAddr     string `mapstructure:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"redis_prefix" env:"REDIS_PREFIX"`
}

// LogConfig controls diagnostics. An empty File logs to stderr.
type LogConfig struct {
	Level      string `mapstructure:"level" env:"LEVEL"`
	File       string `mapstructure:"file" env:"FILE"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `mapstructure:"max_backups" env:"MAX_BACKUPS"`
}

// EvaluatorConfig configures the local practice evaluator.
type EvaluatorConfig struct {
	Addr         string `mapstructure:"addr" env:"ADDR"`
	ScenariosDir string `mapstructure:"scenarios_dir" env:"SCENARIOS_DIR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:            "http://localhost:8000",
		Language:          "en",
		RequestTimeout:    15 * time.Second,
		PresentationDelay: 600 * time.Millisecond,
		HistoryLimit:      10,
		Device: DeviceConfig{
			Store:       StoreFile,
			Path:        defaultDevicePath(),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "sushrusha:",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Evaluator: EvaluatorConfig{
			Addr: ":8000",
		},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile
// when present; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.applyFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

// Validate reports every unusable setting at once.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q must be an absolute URL", c.APIURL))
	}
	if c.Language == "" {
		errs = append(errs, fmt.Errorf("language is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive"))
	}
	if c.PresentationDelay < 0 {
		errs = append(errs, fmt.Errorf("presentation_delay must not be negative"))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("history_limit must be positive"))
	}
	switch c.Device.Store {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Device.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("device.redis_addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("device.store %q must be one of file, redis, memory", c.Device.Store))
	}
	return errors.Join(errs...)
}

func defaultDevicePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".sushrusha", "device.json")
	}
	return filepath.Join(dir, "sushrusha", "device.json")
}
