// Package config loads gh-user-sync configuration from a YAML file and
// USERSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/cache"
	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/detail"
	"github.com/Sternrassler/gh-user-sync/pkg/logging"
	"github.com/Sternrassler/gh-user-sync/pkg/retry"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (USERSYNC_GITHUB_TOKEN, ...).
const EnvPrefix = "USERSYNC"

// DefaultUserAgent identifies the tool to GitHub.
const DefaultUserAgent = "gh-user-sync/1.0 (+https://github.com/Sternrassler/gh-user-sync)"

// Config holds all application configuration.
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Detail  DetailConfig  `mapstructure:"detail"`
	Server  ServerConfig  `mapstructure:"server"`
}

// GitHubConfig configures the API client.
type GitHubConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	Token            string        `mapstructure:"token"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RespectRateLimit bool          `mapstructure:"respect_rate_limit"`
}

// CacheConfig selects and configures the list cache backend.
type CacheConfig struct {
	Backend   string      `mapstructure:"backend"` // memory, bolt, sqlite or redis
	Namespace string      `mapstructure:"namespace"`
	Path      string      `mapstructure:"path"` // bolt and sqlite file
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// RetryConfig configures caller-side retries.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// DetailConfig configures batch profile fetches.
type DetailConfig struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// defaultConfigDir returns $HOME/.config/usersync.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "usersync")
}

// defaultDataPath returns the default bolt/sqlite file.
func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usersync.db"
	}
	return filepath.Join(home, ".local", "share", "usersync", "usersync.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", client.DefaultBaseURL)
	v.SetDefault("github.user_agent", DefaultUserAgent)
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", 30*time.Second)
	v.SetDefault("github.respect_rate_limit", true)

	v.SetDefault("cache.backend", cache.BackendBolt)
	v.SetDefault("cache.namespace", "")
	v.SetDefault("cache.path", defaultDataPath())
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("logging.level", string(logging.LevelInfo))
	v.SetDefault("logging.pretty", false)

	// list only retries when asked to.
	retryDefaults := retry.DefaultConfig()
	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_backoff", retryDefaults.InitialBackoff)
	v.SetDefault("retry.max_backoff", retryDefaults.MaxBackoff)

	detailDefaults := detail.DefaultConfig()
	v.SetDefault("detail.max_concurrency", detailDefaults.MaxConcurrency)
	v.SetDefault("detail.timeout", detailDefaults.Timeout)

	v.SetDefault("server.addr", ":8080")
}

// Load reads the configuration. An explicit path must exist; without one,
// usersync.yaml is searched in the working directory and
// $HOME/.config/usersync, and a missing file means defaults.
// Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("usersync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := defaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.GitHub.UserAgent) == "" {
		errs = append(errs, errors.New("github.user_agent is required"))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("github.timeout must be positive, got %s", c.GitHub.Timeout))
	}

	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendRedis:
	case cache.BackendBolt, cache.BackendSQLite:
		if c.Cache.Path == "" {
			errs = append(errs, fmt.Errorf("cache.path is required for the %s backend", c.Cache.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q: %w", c.Cache.Backend, cache.ErrUnknownBackend))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Detail.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("detail.max_concurrency must be at least 1, got %d", c.Detail.MaxConcurrency))
	}

	return errors.Join(errs...)
}

// ClientConfig converts to the GitHub client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:          c.GitHub.BaseURL,
		UserAgent:        c.GitHub.UserAgent,
		Token:            c.GitHub.Token,
		Timeout:          c.GitHub.Timeout,
		RespectRateLimit: c.GitHub.RespectRateLimit,
	}
}

// CacheBackendConfig converts to the cache backend configuration.
func (c *Config) CacheBackendConfig() cache.Config {
	return cache.Config{
		Backend:       c.Cache.Backend,
		Path:          c.Cache.Path,
		RedisAddr:     c.Cache.Redis.Addr,
		RedisPassword: c.Cache.Redis.Password,
		RedisDB:       c.Cache.Redis.DB,
	}
}

// CacheKey returns the key the user list is stored under.
func (c *Config) CacheKey() cache.Key {
	return cache.DefaultKey.WithNamespace(c.Cache.Namespace)
}

// LoggerConfig converts to the logger configuration.
func (c *Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Logging.Pretty
	return cfg
}

// RetryPolicy converts to the retry configuration.
func (c *Config) RetryPolicy() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.Retry.MaxAttempts
	cfg.InitialBackoff = c.Retry.InitialBackoff
	cfg.MaxBackoff = c.Retry.MaxBackoff
	return cfg
}

// DetailBatchConfig converts to the batch fetcher configuration.
func (c *Config) DetailBatchConfig() detail.Config {
	return detail.Config{
		MaxConcurrency: c.Detail.MaxConcurrency,
		Timeout:        c.Detail.Timeout,
	}
}
