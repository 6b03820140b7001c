package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Webhooks.MaxDeliveries != 1000 {
		t.Errorf("Expected default max deliveries 1000, got %d", cfg.Webhooks.MaxDeliveries)
	}
	if cfg.Webhooks.Timeout != 10*time.Second {
		t.Errorf("Expected default delivery timeout 10s, got %v", cfg.Webhooks.Timeout)
	}
	if cfg.Webhooks.MaxRequestsPerSecond != 10.0 {
		t.Errorf("Expected default outbound rate 10.0, got %v", cfg.Webhooks.MaxRequestsPerSecond)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DISPATCH_PORT", "9999")
	t.Setenv("DISPATCH_MAX_DELIVERIES", "50")
	t.Setenv("DISPATCH_MAX_REQUESTS_PER_SECOND", "0")
	t.Setenv("DISPATCH_DELIVERY_TIMEOUT", "3s")
	t.Setenv("DISPATCH_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Server.Port)
	}
	if cfg.Webhooks.MaxDeliveries != 50 {
		t.Errorf("Expected max deliveries 50, got %d", cfg.Webhooks.MaxDeliveries)
	}
	if cfg.Webhooks.MaxRequestsPerSecond != 0 {
		t.Errorf("Expected throttle disabled, got %v", cfg.Webhooks.MaxRequestsPerSecond)
	}
	if cfg.Webhooks.Timeout != 3*time.Second {
		t.Errorf("Expected timeout 3s, got %v", cfg.Webhooks.Timeout)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Observability.LogLevel)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("DISPATCH_PORT", "not-a-port")
		if _, err := LoadConfig(); err == nil {
			t.Error("Expected validation error for invalid port")
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("DISPATCH_LOG_LEVEL", "verbose")
		if _, err := LoadConfig(); err == nil {
			t.Error("Expected validation error for invalid log level")
		}
	})

	t.Run("malformed env falls back to default", func(t *testing.T) {
		t.Setenv("DISPATCH_MAX_DELIVERIES", "lots")
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Webhooks.MaxDeliveries != 1000 {
			t.Errorf("Expected fallback to 1000, got %d", cfg.Webhooks.MaxDeliveries)
		}
	})
}
