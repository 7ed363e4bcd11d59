package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	envPrefix = "REVIR_"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
	HTTP       HTTPConfig       `yaml:"http" envPrefix:"HTTP_"`
	Redis      RedisConfig      `yaml:"redis" envPrefix:"REDIS_"`
	Monitoring MonitoringConfig `yaml:"monitoring" envPrefix:"MONITORING_"`
	Backup     BackupConfig     `yaml:"backup" envPrefix:"BACKUP_"`
	Reference  ReferenceConfig  `yaml:"reference" envPrefix:"REFERENCE_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver" env:"DRIVER"`
	Path         string `yaml:"path" env:"PATH"`
	DSN          string `yaml:"dsn" env:"DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	APIKey       string        `yaml:"api_key" env:"API_KEY"`
	RateLimit    float64       `yaml:"rate_limit" env:"RATE_LIMIT"` // requests per second per member
	RateBurst    int           `yaml:"rate_burst" env:"RATE_BURST"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
}

type RedisConfig struct {
	Address  string `yaml:"address" env:"ADDRESS"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

// Enabled reports whether events should be forwarded to redis.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port" env:"HEALTH_CHECK_PORT"`
	PrometheusEnabled bool `yaml:"prometheus_enabled" env:"PROMETHEUS_ENABLED"`
	PrometheusPort    int  `yaml:"prometheus_port" env:"PROMETHEUS_PORT"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	IntervalHours int    `yaml:"interval_hours" env:"INTERVAL_HOURS"`
	Path          string `yaml:"path" env:"PATH"`
	RetentionDays int    `yaml:"retention_days" env:"RETENTION_DAYS"`
}

// Interval returns the backup period, 24h when unset.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

type ReferenceConfig struct {
	Path          string        `yaml:"path" env:"PATH"`
	WatchInterval time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// Load reads the YAML config at path, expands ${ENV} placeholders, applies
// REVIR_* environment overrides and fills in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err = ParseEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ParseEnv overlays REVIR_* environment variables onto target.
// Fields without a matching variable keep their current value.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/revir.db"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = 10
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "revir:events"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8081
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Reference.Path == "" {
		c.Reference.Path = "configs/reference.yaml"
	}
	if c.Reference.WatchInterval <= 0 {
		c.Reference.WatchInterval = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for pgx")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Backup.Enabled && c.Database.Driver != DriverSQLite {
		return errors.New("backup is only supported for sqlite3")
	}
	if c.Backup.RetentionDays < 0 {
		return errors.New("backup.retention_days must not be negative")
	}
	return nil
}
