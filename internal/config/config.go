package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	BlueSnap BlueSnapConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// BlueSnapConfig holds BlueSnap gateway configuration. Credentials come either
// from the environment or, when SecretID is set, from AWS Secrets Manager.
type BlueSnapConfig struct {
	Environment string // sandbox or production
	Username    string
	Password    string
	Timeout     time.Duration
	// SecretID is the Secrets Manager name or ARN holding the credentials;
	// empty means the env credentials are used directly
	SecretID  string
	AWSRegion string
	// FraudSessionTTL bounds how long a checkout's fraud session stays valid
	FraudSessionTTL time.Duration
}

// Production reports whether the production endpoint family is selected
func (c *BlueSnapConfig) Production() bool {
	return c.Environment == "production"
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "bluesnap_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		BlueSnap: BlueSnapConfig{
			Environment:     getEnv("BLUESNAP_ENVIRONMENT", "sandbox"),
			Username:        getEnv("BLUESNAP_USERNAME", ""),
			Password:        getEnv("BLUESNAP_PASSWORD", ""),
			Timeout:         getEnvAsDuration("BLUESNAP_TIMEOUT", 30*time.Second),
			SecretID:        getEnv("BLUESNAP_CREDENTIALS_SECRET_ID", ""),
			AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
			FraudSessionTTL: getEnvAsDuration("FRAUD_SESSION_TTL", 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if cfg.BlueSnap.Environment != "sandbox" && cfg.BlueSnap.Environment != "production" {
		return nil, fmt.Errorf("BLUESNAP_ENVIRONMENT must be sandbox or production, got %q", cfg.BlueSnap.Environment)
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.BlueSnap.SecretID == "" && (cfg.BlueSnap.Username == "" || cfg.BlueSnap.Password == "") {
		return nil, fmt.Errorf("BLUESNAP_USERNAME and BLUESNAP_PASSWORD are required when no credentials secret is configured")
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
