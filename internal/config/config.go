// Package config loads service configuration from config.toml and
// SR_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Outbox    OutboxConfig
	Numbering NumberingConfig
	Approval  ApprovalConfig
	Audit     AuditConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type LogConfig struct {
	Level       string
	OutputPaths []string
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	IdempotencyTTL  time.Duration
}

type OutboxConfig struct {
	EmbeddedRelay bool
	BatchSize     int
	PollInterval  time.Duration
	MaxRetries    int
	LockTTL       time.Duration
	Retention     time.Duration
}

type NumberingConfig struct {
	Timezone     string
	FallbackCode string
}

// Location resolves Timezone. Validated configs never fail here.
func (n NumberingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ApprovalConfig struct {
	Required bool
}

type AuditConfig struct {
	CompressThreshold int
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with SR_ prefix (e.g., SR_DATABASE_DSN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stockreturn")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxConns:        v.GetInt32("database.max_conns"),
			MinConns:        v.GetInt32("database.min_conns"),
			MaxConnLifetime: v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime: v.GetDuration("database.max_conn_idle_time"),
			MigrationsPath:  v.GetString("database.migrations_path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			OutputPaths: v.GetStringSlice("log.output_paths"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			IdempotencyTTL:  v.GetDuration("http.idempotency_ttl"),
		},
		Outbox: OutboxConfig{
			EmbeddedRelay: v.GetBool("outbox.embedded_relay"),
			BatchSize:     v.GetInt("outbox.batch_size"),
			PollInterval:  v.GetDuration("outbox.poll_interval"),
			MaxRetries:    v.GetInt("outbox.max_retries"),
			LockTTL:       v.GetDuration("outbox.lock_ttl"),
			Retention:     v.GetDuration("outbox.retention"),
		},
		Numbering: NumberingConfig{
			Timezone:     v.GetString("numbering.timezone"),
			FallbackCode: v.GetString("numbering.fallback_code"),
		},
		Approval: ApprovalConfig{
			Required: v.GetBool("approval.required"),
		},
		Audit: AuditConfig{
			CompressThreshold: v.GetInt("audit.compress_threshold"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stockreturn"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 25
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.MaxConnLifetime == 0 {
		cfg.Database.MaxConnLifetime = time.Hour
	}
	if cfg.Database.MaxConnIdleTime == 0 {
		cfg.Database.MaxConnIdleTime = 30 * time.Minute
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "file://db/migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = 10 * time.Minute
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "stockreturn"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 15 * time.Minute
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdempotencyTTL == 0 {
		cfg.HTTP.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 100
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = time.Second
	}
	if cfg.Outbox.MaxRetries == 0 {
		cfg.Outbox.MaxRetries = 5
	}
	if cfg.Outbox.LockTTL == 0 {
		cfg.Outbox.LockTTL = 30 * time.Second
	}
	if cfg.Outbox.Retention == 0 {
		cfg.Outbox.Retention = 7 * 24 * time.Hour
	}

	if cfg.Numbering.Timezone == "" {
		cfg.Numbering.Timezone = "UTC"
	}
	if cfg.Numbering.FallbackCode == "" {
		cfg.Numbering.FallbackCode = "COMP"
	}

	if cfg.Audit.CompressThreshold == 0 {
		cfg.Audit.CompressThreshold = 4 * 1024
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) must be between 0 and database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Outbox.BatchSize < 0 || c.Outbox.MaxRetries < 0 {
		return fmt.Errorf("outbox.batch_size and outbox.max_retries cannot be negative")
	}

	if _, err := time.LoadLocation(c.Numbering.Timezone); err != nil {
		return fmt.Errorf("numbering.timezone %q: %w", c.Numbering.Timezone, err)
	}
	if strings.ContainsAny(c.Numbering.FallbackCode, "- ") {
		return fmt.Errorf("numbering.fallback_code must not contain dashes or spaces")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.App.IsProduction() && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters in production")
	}

	return nil
}
