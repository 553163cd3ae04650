// Package config provides configuration management for the REST API server.
//
// Values are layered, later sources overriding earlier ones: built-in
// defaults, an optional YAML file, an optional .env file and finally the
// process environment. Environment keys use the APP_ prefix and map
// underscores to nesting, so APP_SERVER_PORT sets server.port.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort      = 3000
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultStoreDriver     = StoreDriverFile
	DefaultStorePath       = "./articulos.json"
	DefaultEventsEnabled   = true
	DefaultConfigFile      = "config.yaml"
	DefaultEnvFile         = ".env"
)

// Store drivers.
const (
	StoreDriverFile   = "file"
	StoreDriverMemory = "memory"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "APP_"

// Environment variable names.
const (
	EnvConfigFile      = "APP_CONFIG_FILE"
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStoreDriver     = "APP_STORE_DRIVER"
	EnvStorePath       = "APP_STORE_PATH"
	EnvEventsEnabled   = "APP_EVENTS_ENABLED"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Shutdown ShutdownConfig `koanf:"shutdown"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Store    StoreConfig    `koanf:"store"`
	Events   EventsConfig   `koanf:"events"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `koanf:"port" validate:"min=1,max=65535"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// ShutdownConfig configures graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// MetricsConfig toggles the Prometheus endpoint and middleware.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// StoreConfig selects where items are kept.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=file memory"`
	Path   string `koanf:"path" validate:"required_if=Driver file"`
}

// EventsConfig toggles the WebSocket item feed.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidStoreDriver     = errors.New("store driver must be one of: file, memory")
	ErrMissingStorePath       = errors.New("store path must be set when store driver is file")
)

// fieldErrors maps a failing struct field to its sentinel error.
var fieldErrors = map[string]error{
	"Config.Server.Port":      ErrInvalidServerPort,
	"Config.Log.Level":        ErrInvalidLogLevel,
	"Config.Shutdown.Timeout": ErrInvalidShutdownTimeout,
	"Config.Store.Driver":     ErrInvalidStoreDriver,
	"Config.Store.Path":       ErrMissingStorePath,
}

// Default returns the configuration used when no source overrides a value.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: DefaultServerPort},
		Log:      LogConfig{Level: DefaultLogLevel},
		Shutdown: ShutdownConfig{Timeout: DefaultShutdownTimeout},
		Metrics:  MetricsConfig{Enabled: DefaultMetricsEnabled},
		Store:    StoreConfig{Driver: DefaultStoreDriver, Path: DefaultStorePath},
		Events:   EventsConfig{Enabled: DefaultEventsEnabled},
	}
}

// Load reads configuration from the default YAML file (or the one named by
// APP_CONFIG_FILE), the .env file in the working directory and the process
// environment.
func Load() (*Config, error) {
	configFile := os.Getenv(EnvConfigFile)
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	return LoadFrom(configFile, DefaultEnvFile)
}

// LoadFrom is Load with explicit file locations. Missing files are skipped;
// an empty name disables that source.
func LoadFrom(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		envMap, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
		if len(envMap) > 0 {
			values := make(map[string]any, len(envMap))
			for key, value := range envMap {
				if strings.HasPrefix(key, EnvPrefix) {
					values[envKey(key)] = value
				}
			}
			if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
				return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// envKey turns APP_STORE_PATH into store.path.
func envKey(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.port":      d.Server.Port,
		"log.level":        d.Log.Level,
		"shutdown.timeout": d.Shutdown.Timeout.String(),
		"metrics.enabled":  d.Metrics.Enabled,
		"store.driver":     d.Store.Driver,
		"store.path":       d.Store.Path,
		"events.enabled":   d.Events.Enabled,
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	for _, fe := range verrs {
		if sentinel, ok := fieldErrors[fe.Namespace()]; ok {
			return sentinel
		}
	}

	return verrs
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
