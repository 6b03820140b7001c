package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusHealthy = "healthy"
)

// HealthChecker provides liveness and readiness probe handlers. The
// service holds all state in memory, so readiness has no external
// dependencies to check.
type HealthChecker struct {
	version   string
	startedAt time.Time
}

// NewHealthChecker creates a health checker reporting the given version.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		version:   version,
		startedAt: time.Now().UTC(),
	}
}

// Liveness returns 200 whenever the process is running.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    StatusHealthy,
		"timestamp": time.Now().UTC(),
	})
}

// Readiness reports the service ready along with version and uptime.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    StatusHealthy,
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC(),
	})
}
