// Package config loads handlerwrap settings from an optional file and
// HANDLERWRAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jdziat/handlerwrap/pkg/core"
)

// EnvPrefix prefixes every environment variable; HANDLERWRAP_HANDLER sets
// the handler key.
const EnvPrefix = "HANDLERWRAP"

// Config is the process configuration.
type Config struct {
	// Handler is the "<unit>::<method>" or "<unit>" identifier to serve.
	Handler string        `mapstructure:"handler"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Journal JournalConfig `mapstructure:"journal"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
}

// JournalConfig configures the invocation journal. An empty DSN disables it.
type JournalConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig toggles Prometheus collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var validate = validator.New()

// NewViper returns a viper instance with defaults and environment binding
// set up. Callers may bind flags to it before LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("handler", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.service_name", "handlerwrap")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("metrics.enabled", true)
	return v
}

// Load reads path (optional) and the environment.
func Load(path string) (*Config, error) {
	return LoadFrom(NewViper(), path)
}

// LoadFrom reads path (optional) into v and unmarshals the result.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints. The handler is checked separately by
// Identifier since not every command needs one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Identifier parses the configured handler verbatim. An empty handler is
// core.ErrMissingHandler.
func (c *Config) Identifier() (core.HandlerIdentifier, error) {
	if c.Handler == "" {
		return core.HandlerIdentifier{}, core.ErrMissingHandler
	}
	return core.ParseIdentifier(c.Handler), nil
}
