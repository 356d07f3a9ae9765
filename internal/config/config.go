package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL   = "https://sharpapi.com/api/v1"
	DefaultUserAgent = "SharpAPIGoClient/1.2.0"
)

// Config holds all configuration for the sharpjobs client, gateway and CLI.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	SharpAPI SharpAPIConfig
	Polling  PollingConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	LogLevel        string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// SharpAPIConfig is the immutable per-client transport configuration.
type SharpAPIConfig struct {
	APIKey    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// PollingConfig seeds the default polling policy.
// UseCustomInterval forces Interval for every wait and ignores Retry-After.
type PollingConfig struct {
	Interval          time.Duration
	MaxWait           time.Duration
	UseCustomInterval bool
}

// Load reads configuration from environment variables and returns a validated Config.
// Only the SharpAPI credentials are required; use ValidateGateway for the server.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SHARPJOBS_PORT", 8080)
	v.SetDefault("SHARPJOBS_ENV", "development")
	v.SetDefault("SHARPJOBS_LOG_LEVEL", "info")
	v.SetDefault("SHARPJOBS_RATE_LIMIT_PER_MIN", 60)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("SHARPAPI_BASE_URL", DefaultBaseURL)
	v.SetDefault("SHARPAPI_USER_AGENT", DefaultUserAgent)
	v.SetDefault("SHARPAPI_TIMEOUT", 30*time.Second)
	v.SetDefault("SHARPAPI_POLL_INTERVAL_SECS", 10)
	v.SetDefault("SHARPAPI_POLL_MAX_WAIT_SECS", 180)
	v.SetDefault("SHARPAPI_POLL_USE_CUSTOM_INTERVAL", false)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SHARPJOBS_PORT"),
			Env:             v.GetString("SHARPJOBS_ENV"),
			LogLevel:        v.GetString("SHARPJOBS_LOG_LEVEL"),
			RateLimitPerMin: v.GetInt("SHARPJOBS_RATE_LIMIT_PER_MIN"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		SharpAPI: SharpAPIConfig{
			APIKey:    v.GetString("SHARPAPI_API_KEY"),
			BaseURL:   strings.TrimRight(v.GetString("SHARPAPI_BASE_URL"), "/"),
			UserAgent: v.GetString("SHARPAPI_USER_AGENT"),
			Timeout:   v.GetDuration("SHARPAPI_TIMEOUT"),
		},
		Polling: PollingConfig{
			Interval:          time.Duration(v.GetInt("SHARPAPI_POLL_INTERVAL_SECS")) * time.Second,
			MaxWait:           time.Duration(v.GetInt("SHARPAPI_POLL_MAX_WAIT_SECS")) * time.Second,
			UseCustomInterval: v.GetBool("SHARPAPI_POLL_USE_CUSTOM_INTERVAL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SharpAPI.APIKey == "" {
		return fmt.Errorf("SHARPAPI_API_KEY is required")
	}
	if !strings.HasPrefix(c.SharpAPI.BaseURL, "http://") && !strings.HasPrefix(c.SharpAPI.BaseURL, "https://") {
		return fmt.Errorf("SHARPAPI_BASE_URL must start with http:// or https://, got %q", c.SharpAPI.BaseURL)
	}
	if c.SharpAPI.Timeout <= 0 {
		return fmt.Errorf("SHARPAPI_TIMEOUT must be a positive duration")
	}

	if c.Polling.Interval <= 0 {
		return fmt.Errorf("SHARPAPI_POLL_INTERVAL_SECS must be a positive number of seconds")
	}
	if c.Polling.MaxWait < 0 {
		return fmt.Errorf("SHARPAPI_POLL_MAX_WAIT_SECS must not be negative")
	}

	return nil
}

// ValidateGateway checks the settings only the gateway server needs.
func (c *Config) ValidateGateway() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SHARPJOBS_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}
