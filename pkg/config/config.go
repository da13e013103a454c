package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devSecret is only accepted outside release mode.
const devSecret = "dev-insecure-secret-change"

// Database holds connection settings for the relational store.
type Database struct {
	Type            string // mysql, postgres, sqlite, sqlserver
	Host            string
	Port            string
	Name            string // file path for sqlite
	User            string
	Password        string
	DSN             string // overrides the discrete fields when set
	ConnectionLimit int
	AutoMigrate     bool
	LogLevel        string
}

// Config holds all process configuration read from the environment.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DB Database

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	UploadBase     string
	MaxUploadBytes int64
	InboxDir       string

	CORSOrigins     []string
	TrustedProxies  []string // IPs or CIDRs allowed to set X-Forwarded-For; none by default
	RateLimitWindow time.Duration
	RateLimitMax    int

	AdminEmail    string
	AdminPassword string
}

// Load reads ./.env when present (without overriding variables already set)
// and then builds the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "5000"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: Database{
			Type:            strings.ToLower(getEnv("DB_TYPE", "mysql")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", ""),
			Name:            getEnv("DB_NAME", "chs_acquittals"),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			DSN:             getEnv("DB_DSN", ""),
			ConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 10),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTTTL:          getEnvAsDuration("JWT_TTL", 24*time.Hour),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 12),
		UploadBase:      getEnv("UPLOAD_BASE", "uploads"),
		MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		InboxDir:        getEnv("INBOX_DIR", "inbox"),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		TrustedProxies:  getEnvAsList("TRUSTED_PROXIES", nil),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		AdminEmail:      getEnv("ADMIN_EMAIL", ""),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = devSecret
	}
	for _, p := range cfg.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", p)
			}
		}
	}
	if cfg.DB.ConnectionLimit <= 0 {
		return nil, fmt.Errorf("DB_CONNECTION_LIMIT must be positive")
	}
	if cfg.DB.DSN == "" && cfg.DB.Type != "sqlite" && cfg.DB.Name == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	return cfg, nil
}

// UsingDevSecret reports whether the built-in development JWT secret is active.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == devSecret
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

// getEnvAsDuration accepts Go durations ("15m") or plain milliseconds ("900000").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(valueStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
