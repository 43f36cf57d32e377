package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the audiobook gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Converter service configuration.
	// ConverterBaseURL is the base URL of the remote conversion service,
	// e.g. http://localhost:8000. The engine choice selects the path under it.
	ConverterBaseURL string `envconfig:"CONVERTER_BASE_URL" default:"http://localhost:8000"`

	// ConverterTimeoutSeconds bounds a single conversion request.
	// 0 means no timeout, which matches the reference behavior: once a
	// submission is in flight it runs until the service answers.
	ConverterTimeoutSeconds int `envconfig:"CONVERTER_TIMEOUT" default:"0"`

	// Upload boundary configuration
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"` // 50 MiB

	// Playback configuration
	SkipSeconds float64 `envconfig:"SKIP_SECONDS" default:"10"` // skip-back/forward step

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if it doesn't)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate required fields
	if cfg.ConverterBaseURL == "" {
		return nil, fmt.Errorf("CONVERTER_BASE_URL is required")
	}
	if !strings.HasPrefix(cfg.ConverterBaseURL, "http://") && !strings.HasPrefix(cfg.ConverterBaseURL, "https://") {
		return nil, fmt.Errorf("CONVERTER_BASE_URL must start with http:// or https://")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.ConverterTimeoutSeconds < 0 {
		return nil, fmt.Errorf("CONVERTER_TIMEOUT must not be negative")
	}

	// Trailing slashes make endpoint joining ambiguous
	cfg.ConverterBaseURL = strings.TrimRight(cfg.ConverterBaseURL, "/")

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
