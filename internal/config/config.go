package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPort = 3031

	StoreBackendPostgres = "postgres"
	StoreBackendBadger   = "badger"

	AuthModeJWT     = "jwt"
	AuthModeSession = "session"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	StoreBackend   string `toml:"store_backend"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	BadgerPath     string `toml:"badger_path"`

	// blog read cache
	CacheSizeMB     int `toml:"cache_size_mb"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`

	// auth
	AuthMode  string `toml:"auth_mode"`
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	AllowedOrigins []string `toml:"allowed_origins"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
		env = "development"
	case "prod", "production":
		cfg = t.Production
		env = "production"
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}

	cfg.Environment = env
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid [%s] config: %w", env, err)
	}

	return cfg, nil
}

// Load reads the TOML file at path and returns the config section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.Get(env)
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendPostgres
	}
	if c.AuthMode == "" {
		c.AuthMode = AuthModeJWT
	}
	if c.CacheSizeMB == 0 {
		c.CacheSizeMB = 16
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 60
	}
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres host, port and db name required for store backend [%s]", c.StoreBackend)
		}
	case StoreBackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("badger path required for store backend [%s]", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}

	switch c.AuthMode {
	case AuthModeJWT:
	case AuthModeSession:
		if c.RedisHost == "" || c.RedisPort == "" {
			return fmt.Errorf("redis host and port required for auth mode [%s]", c.AuthMode)
		}
	default:
		return fmt.Errorf("unknown auth mode: %s", c.AuthMode)
	}

	return nil
}
