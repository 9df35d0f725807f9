package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Security SecurityConfig
	App      AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// StripeConfig holds payment gateway credentials and price references
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BasePriceID   string
	ChildPriceID  string
	APIBaseURL    string
}

// SecurityConfig holds encryption keys
type SecurityConfig struct {
	// MedicalDataKey is a 32-byte hex key for encrypting questionnaire answers
	MedicalDataKey string
}

// AppConfig holds application-level settings
type AppConfig struct {
	// BaseURL is where checkout success/cancel redirects land
	BaseURL string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "membercare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			BasePriceID:   getEnv("STRIPE_BASE_PRICE_ID", ""),
			ChildPriceID:  getEnv("STRIPE_CHILD_PRICE_ID", ""),
			APIBaseURL:    getEnv("STRIPE_API_BASE_URL", "https://api.stripe.com"),
		},
		Security: SecurityConfig{
			MedicalDataKey: getEnv("MEDICAL_DATA_ENCRYPTION_KEY", ""),
		},
		App: AppConfig{
			BaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
	}
}

// Validate checks that required secrets are present. Startup must fail on error.
func (c *Config) Validate() error {
	var missing []string
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.Stripe.BasePriceID == "" {
		missing = append(missing, "STRIPE_BASE_PRICE_ID")
	}
	if c.Stripe.ChildPriceID == "" {
		missing = append(missing, "STRIPE_CHILD_PRICE_ID")
	}
	if c.Security.MedicalDataKey == "" {
		missing = append(missing, "MEDICAL_DATA_ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}

	key, err := hex.DecodeString(c.Security.MedicalDataKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("MEDICAL_DATA_ENCRYPTION_KEY must be a 32-byte hex string")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
