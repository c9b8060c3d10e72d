package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Master store
	MongoURI       string
	MasterDB       string
	ConnectTimeout time.Duration

	// Tokens
	JWTSecret    string
	JWTAlgorithm string
	JWTIssuer    string
	TokenTTL     time.Duration

	// Login rate limiting
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Request validation
	MaxRequestBodySize int64

	// Security headers
	SecurityHeadersEnabled bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Master store defaults (matches local mongod)
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MasterDB:       getEnv("MASTER_DB", "master_db"),
		ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		// Token defaults
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTAlgorithm: getEnv("JWT_ALGORITHM", "HS256"),
		JWTIssuer:    getEnv("JWT_ISSUER", "org-mgmt"),
		TokenTTL:     getEnvDuration("JWT_EXPIRE", 2*time.Hour),

		// Login rate limit defaults
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),

		// Request validation defaults
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),

		// Security header defaults
		SecurityHeadersEnabled: getEnvBool("SECURITY_HEADERS_ENABLED", true),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("JWT_ALGORITHM must be one of HS256, HS384, HS512, got %q", cfg.JWTAlgorithm)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
