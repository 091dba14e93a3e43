package config

import (
	"fmt"
	"os"
	"strconv"

	"connexa-backend/internal/apperrors"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. It is built once at
// startup and read-only afterwards; the signing secret is never reloaded.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration. URL, when set, takes
// precedence over the individual fields.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds cache configuration. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// StorageConfig holds object-storage configuration for banner uploads.
type StorageConfig struct {
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Endpoint      string `yaml:"endpoint"`        // custom S3-compatible endpoint
	PublicBaseURL string `yaml:"public_base_url"` // base for public object URLs
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// RateLimitConfig holds per-IP throttling for the auth endpoints.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file, applies environment
// overrides, and validates required settings. A missing file is not an
// error; environment variables alone can configure the process.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 5, Burst: 10},
		Log:       LogConfig{Level: "info"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("S3_PUBLIC_BASE_URL"); v != "" {
		c.Storage.PublicBaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate reports missing required configuration. Secrets and data-store
// settings have no fallback defaults.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return apperrors.New(apperrors.CodeEnvMissing, "JWT_SECRET is not set")
	}
	if c.Database.URL == "" && (c.Database.User == "" || c.Database.DBName == "") {
		return apperrors.New(apperrors.CodeEnvMissing, "DATABASE_URL is not set")
	}
	if c.Storage.Bucket == "" {
		return apperrors.New(apperrors.CodeEnvMissing, "S3_BUCKET is not set")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
