package di

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the file/env form of the registry options.
//
//	overwritePolicy: error
//	defaultLifetime: transient
//	maxDepth: 64
//	logLevel: debug
//	logFormat: json
type Config struct {
	OverwritePolicy OverwritePolicy `yaml:"overwritePolicy"`
	DefaultLifetime Lifetime        `yaml:"defaultLifetime"`
	MaxDepth        int             `yaml:"maxDepth"`

	// LogLevel enables logging when set (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// LogFormat is "console" (default) or "json".
	LogFormat string `yaml:"logFormat"`
}

// Environment variables read by ConfigFromEnv.
const (
	EnvOverwritePolicy = "DI_OVERWRITE_POLICY"
	EnvDefaultLifetime = "DI_DEFAULT_LIFETIME"
	EnvMaxDepth        = "DI_MAX_DEPTH"
	EnvLogLevel        = "DI_LOG_LEVEL"
	EnvLogFormat       = "DI_LOG_FORMAT"
)

// ParseConfig decodes a yaml document. Unknown fields are rejected and an
// empty document yields the zero Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("di: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a yaml config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("di: load config: %w", err)
	}
	return ParseConfig(data)
}

// ConfigFromEnv builds a Config from DI_* environment variables. Unset
// variables keep their zero defaults; malformed ones are an error.
func ConfigFromEnv() (Config, error) {
	var cfg Config

	if v := os.Getenv(EnvOverwritePolicy); v != "" {
		p, err := ParseOverwritePolicy(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvOverwritePolicy, err)
		}
		cfg.OverwritePolicy = p
	}
	if v := os.Getenv(EnvDefaultLifetime); v != "" {
		l, err := ParseLifetime(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDefaultLifetime, err)
		}
		cfg.DefaultLifetime = l
	}
	if v := os.Getenv(EnvMaxDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be an integer: %w", EnvMaxDepth, err)
		}
		cfg.MaxDepth = n
	}
	cfg.LogLevel = os.Getenv(EnvLogLevel)
	cfg.LogFormat = os.Getenv(EnvLogFormat)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports values NewRegistry cannot use.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("di: maxDepth must be >= 0, got %d", c.MaxDepth)
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("di: logLevel: %w", err)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("di: logFormat must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the zap logger described by LogLevel and LogFormat.
// Without a LogLevel it returns a no-op logger.
func (c Config) Logger() (*zap.Logger, error) {
	if c.LogLevel == "" {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("di: logLevel: %w", err)
	}

	var zc zap.Config
	if strings.EqualFold(c.LogFormat, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Options converts the config into registry options, building the logger.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithLogger(log.Named("di")),
		WithOverwritePolicy(c.OverwritePolicy),
		WithDefaultLifetime(c.DefaultLifetime),
		WithMaxDepth(c.MaxDepth),
	}, nil
}

// NewRegistryFromConfig is NewRegistry(cfg.Options()...) plus extra options,
// which are applied last.
func NewRegistryFromConfig(cfg Config, extra ...Option) (*Registry, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return NewRegistry(append(opts, extra...)...), nil
}
