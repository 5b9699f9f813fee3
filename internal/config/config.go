package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Lock backends for the stock ledger
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
	LockBackendNone   = "none"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Payroll     PayrollConfig
	Idempotency IdempotencyConfig
	Log         LogConfig

	// ConfigFileUsed is empty when no .env file was read
	ConfigFileUsed string
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxOpenConns int
	MaxIdleConns int
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LedgerConfig struct {
	LockBackend            string
	LockTTL                time.Duration
	LockWait               time.Duration
	AlertsOnManualMovement bool
}

type PayrollConfig struct {
	ReverseMethod string
}

type IdempotencyConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type LogConfig struct {
	Mode  string
	Level string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	configFile := ""
	if err := viper.ReadInConfig(); err == nil {
		configFile = viper.ConfigFileUsed()
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "atelier-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_SHUTDOWN_TIMEOUT", "15s")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "atelier")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Tunis")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 50)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_METHODS", "")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LEDGER_LOCK_BACKEND", LockBackendMemory)
	viper.SetDefault("LEDGER_LOCK_TTL", "30s")
	viper.SetDefault("LEDGER_LOCK_WAIT", "5s")
	viper.SetDefault("LEDGER_ALERTS_ON_MANUAL_MOVEMENT", false)
	viper.SetDefault("PAYROLL_REVERSE_METHOD", "damped")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("IDEMPOTENCY_CLEANUP_INTERVAL", "1h")
	viper.SetDefault("LOG_MODE", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	return &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Env:             viper.GetString("APP_ENV"),
			Port:            viper.GetString("APP_PORT"),
			Debug:           viper.GetBool("APP_DEBUG"),
			ShutdownTimeout: viper.GetDuration("APP_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Ledger: LedgerConfig{
			LockBackend:            strings.ToLower(viper.GetString("LEDGER_LOCK_BACKEND")),
			LockTTL:                viper.GetDuration("LEDGER_LOCK_TTL"),
			LockWait:               viper.GetDuration("LEDGER_LOCK_WAIT"),
			AlertsOnManualMovement: viper.GetBool("LEDGER_ALERTS_ON_MANUAL_MOVEMENT"),
		},
		Payroll: PayrollConfig{
			ReverseMethod: strings.ToLower(viper.GetString("PAYROLL_REVERSE_METHOD")),
		},
		Idempotency: IdempotencyConfig{
			TTL:             viper.GetDuration("IDEMPOTENCY_TTL"),
			CleanupInterval: viper.GetDuration("IDEMPOTENCY_CLEANUP_INTERVAL"),
		},
		Log: LogConfig{
			Mode:  viper.GetString("LOG_MODE"),
			Level: viper.GetString("LOG_LEVEL"),
		},
		ConfigFileUsed: configFile,
	}
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.Ledger.LockBackend {
	case LockBackendMemory, LockBackendRedis, LockBackendNone:
	default:
		return fmt.Errorf("unknown LEDGER_LOCK_BACKEND %q", c.Ledger.LockBackend)
	}
	if c.Ledger.LockBackend == LockBackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis lock backend")
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Duration < 1 {
		return fmt.Errorf("rate limit requests and duration must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
