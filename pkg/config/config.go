package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Webhooks      WebhooksConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// WebhooksConfig holds delivery service settings
type WebhooksConfig struct {
	// MaxDeliveries caps the delivery ledger
	MaxDeliveries int
	// Timeout bounds each outbound HTTP attempt
	Timeout time.Duration
	// MaxRequestsPerSecond throttles outbound deliveries; <= 0 disables
	MaxRequestsPerSecond float64
	// MaxConcurrentDeliveries bounds fan-out parallelism per event
	MaxConcurrentDeliveries int
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string
	LogJSON        bool
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("DISPATCH_HOST", "0.0.0.0"),
			Port:            getEnv("DISPATCH_PORT", "8080"),
			ReadTimeout:     getEnvDuration("DISPATCH_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("DISPATCH_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("DISPATCH_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("DISPATCH_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Webhooks: WebhooksConfig{
			MaxDeliveries:           getEnvInt("DISPATCH_MAX_DELIVERIES", 1000),
			Timeout:                 getEnvDuration("DISPATCH_DELIVERY_TIMEOUT", 10*time.Second),
			MaxRequestsPerSecond:    getEnvFloat("DISPATCH_MAX_REQUESTS_PER_SECOND", 10.0),
			MaxConcurrentDeliveries: getEnvInt("DISPATCH_MAX_CONCURRENT_DELIVERIES", 8),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("DISPATCH_LOG_LEVEL", "info"),
			LogJSON:        getEnvBool("DISPATCH_LOG_JSON", true),
			MetricsEnabled: getEnvBool("DISPATCH_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}
	if c.Webhooks.MaxDeliveries <= 0 {
		return fmt.Errorf("max deliveries must be positive")
	}
	if c.Webhooks.Timeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
	}
	return nil
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
