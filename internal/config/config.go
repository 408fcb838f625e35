package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Uploads     UploadsConfig
	Logging     LoggingConfig
	Environment string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL             string
	MaxConnections  int
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	Issuer     string
	BcryptCost int
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

type RateLimitConfig struct {
	PublicPerMinute   int
	LoginPer15Minutes int
}

type UploadsConfig struct {
	Dir      string
	MaxBytes int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	environment := getEnv("ENVIRONMENT", "development")

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConnections:  getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			ConnectAttempts: getEnvInt("DATABASE_CONNECT_ATTEMPTS", 10),
			ConnectBackoff:  time.Duration(getEnvInt("DATABASE_CONNECT_BACKOFF_SECONDS", 3)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			JWTExpiry:  time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 168)) * time.Hour,
			Issuer:     getEnv("JWT_ISSUER", "gatherly"),
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		CORS: CORSConfig{
			AllowAllOrigins: environment == "development",
			AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
		},
		Uploads: UploadsConfig{
			Dir:      getEnv("UPLOADS_DIR", "uploads"),
			MaxBytes: int64(getEnvInt("UPLOADS_MAX_BYTES", 10<<20)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: environment,
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
