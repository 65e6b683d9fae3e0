// Package config loads process configuration for the fieldbind command from
// defaults, an optional YAML file and FIELDBIND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-fieldbind/pkg/activity"
	"github.com/goliatone/go-fieldbind/pkg/store"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. FIELDBIND_STORE_BACKEND.
const EnvPrefix = "FIELDBIND"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config is the root configuration document.
type Config struct {
	Logger   LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Store    StoreConfig     `mapstructure:"store" yaml:"store"`
	Binding  BindingConfig   `mapstructure:"binding" yaml:"binding"`
	Activity activity.Config `mapstructure:"activity" yaml:"activity"`
}

// LoggerConfig controls the process logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Format   string         `mapstructure:"format" yaml:"format"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	URL          string `mapstructure:"url" yaml:"url"`
	Table        string `mapstructure:"table" yaml:"table"`
	EnsureSchema bool   `mapstructure:"ensure_schema" yaml:"ensure_schema"`
}

// BindingConfig holds defaults applied to bindings created by the process.
type BindingConfig struct {
	Scope           string `mapstructure:"scope" yaml:"scope"`
	StrictNarrowing bool   `mapstructure:"strict_narrowing" yaml:"strict_narrowing"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "fieldbind")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	// -- Store --
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", "~/.fieldbind/values.yaml")
	v.SetDefault("store.format", "")
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("store.postgres.table", store.DefaultTable)
	v.SetDefault("store.postgres.ensure_schema", true)

	// -- Binding --
	v.SetDefault("binding.scope", "fieldbind")
	v.SetDefault("binding.strict_narrowing", false)

	// -- Activity --
	v.SetDefault("activity.enabled", false)
	v.SetDefault("activity.channel", activity.DefaultChannel)
}

// NewViper returns a viper instance with defaults and environment binding.
// When path is empty, config.yaml is searched in the working directory and
// ~/.fieldbind.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fieldbind")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file, if any, and returns the validated
// configuration. A missing file is not an error unless path names it.
func Load(path string) (*Config, error) {
	return LoadViper(NewViper(path), path != "")
}

// LoadViper is Load for a prepared viper instance, e.g. one with bound
// command line flags. explicit reports whether a config file was named.
func LoadViper(v *viper.Viper, explicit bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper decodes and validates v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults only.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decode defaults: %v", err))
	}
	return &cfg
}

// Validate checks field values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Binding.Scope) == "" {
		return errors.New("binding.scope must not be empty")
	}
	return nil
}

// Validate checks the selected backend has what it needs.
func (s StoreConfig) Validate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(s.Path) == "" {
			return errors.New("store.path is required for the file backend")
		}
		if _, err := store.ParseFormat(s.Format); err != nil {
			return fmt.Errorf("store.format: %w", err)
		}
	case BackendPostgres:
		if strings.TrimSpace(s.Postgres.URL) == "" {
			return errors.New("store.postgres.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("store.backend must be memory, file or postgres, got %q", s.Backend)
	}
	return nil
}
