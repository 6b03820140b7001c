package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.ObserveEvent("entity.created")
	m.ObserveEvent("entity.created")
	m.ObserveDelivery("success", 120*time.Millisecond)
	m.ObserveDelivery("failed", 50*time.Millisecond)
	m.ObserveRetries(3)
	m.SetWebhookCounts(4, 2)

	if got := testutil.ToFloat64(m.EventsTotal.WithLabelValues("entity.created")); got != 2 {
		t.Errorf("Expected 2 events, got %v", got)
	}
	if got := testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful delivery, got %v", got)
	}
	if got := testutil.ToFloat64(m.RetriesTotal); got != 3 {
		t.Errorf("Expected 3 retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.WebhooksActive); got != 2 {
		t.Errorf("Expected 2 active webhooks, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	// None of these may panic on a nil receiver.
	m.ObserveEvent("entity.created")
	m.ObserveDelivery("success", time.Millisecond)
	m.ObserveRetries(1)
	m.SetWebhookCounts(1, 1)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveEvent("entity.created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected metrics output")
	}
}

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker("test")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("Expected liveness 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 200 {
		t.Errorf("Expected readiness 200, got %d", rec.Code)
	}
}
