package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/quarryhq/dispatch/pkg/observability"
)

// Config holds the service-level webhook delivery knobs.
type Config struct {
	// MaxDeliveries caps the delivery ledger; oldest entries are evicted.
	MaxDeliveries int
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
	// MaxRequestsPerSecond throttles all outbound deliveries combined.
	// Zero or negative disables throttling.
	MaxRequestsPerSecond float64
	// MaxConcurrentDeliveries bounds fan-out parallelism per event.
	MaxConcurrentDeliveries int
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		MaxDeliveries:           1000,
		Timeout:                 10 * time.Second,
		MaxRequestsPerSecond:    10.0,
		MaxConcurrentDeliveries: 8,
	}
}

// Envelope is the JSON body posted to receivers.
type Envelope struct {
	Event     EventType      `json:"event"`
	Timestamp string         `json:"timestamp"`
	ProjectID *string        `json:"project_id"`
	Data      map[string]any `json:"data"`
}

// Stats is a point-in-time snapshot of service counters.
type Stats struct {
	TotalEvents          int64 `json:"total_events"`
	SuccessfulDeliveries int64 `json:"successful_deliveries"`
	FailedDeliveries     int64 `json:"failed_deliveries"`
	RetriedDeliveries    int64 `json:"retried_deliveries"`
	ActiveWebhooks       int   `json:"active_webhooks"`
	TotalWebhooks        int   `json:"total_webhooks"`
	PendingDeliveries    int   `json:"pending_deliveries"`
}

// Service wires the registry, ledger, and executor into the webhook
// delivery subsystem. One instance is constructed at startup and passed
// by reference; there is no package-level singleton.
type Service struct {
	registry *Registry
	ledger   *DeliveryStore
	executor *Executor
	logger   *logrus.Logger
	metrics  *observability.Metrics

	maxConcurrent int

	// mu serializes the running counters; webhook counters live behind
	// the registry's lock and delivery records behind the ledger's.
	mu                   sync.Mutex
	totalEvents          int64
	successfulDeliveries int64
	failedDeliveries     int64
	retriedDeliveries    int64
}

// NewService creates a webhook delivery service. A nil client makes every
// delivery fail immediately (the outbound HTTP capability is treated as
// unavailable). Metrics may be nil.
func NewService(cfg Config, client HTTPDoer, logger *logrus.Logger, metrics *observability.Metrics) *Service {
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 1000
	}
	if cfg.MaxConcurrentDeliveries <= 0 {
		cfg.MaxConcurrentDeliveries = 8
	}
	if logger == nil {
		logger = logrus.New()
	}

	throttle := NewThrottle(cfg.MaxRequestsPerSecond)
	ledger := NewDeliveryStore(cfg.MaxDeliveries)
	executor := NewExecutor(client, throttle, cfg.Timeout, logger)
	// State transitions on working records are published into the ledger
	// so readers always see consistent snapshots.
	executor.sink = ledger.Sync

	return &Service{
		registry:      NewRegistry(),
		ledger:        ledger,
		executor:      executor,
		logger:        logger,
		metrics:       metrics,
		maxConcurrent: cfg.MaxConcurrentDeliveries,
	}
}

// CreateWebhook validates and registers a new webhook.
func (s *Service) CreateWebhook(config WebhookConfig) (*Webhook, error) {
	hook, err := s.registry.Create(config)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"webhook_id": hook.ID,
		"name":       hook.Config.Name,
		"url":        hook.Config.URL,
	}).Info("webhook registered")
	s.updateWebhookGauges()
	return hook, nil
}

// GetWebhook retrieves a webhook by ID.
func (s *Service) GetWebhook(id string) (*Webhook, bool) {
	return s.registry.Get(id)
}

// UpdateWebhook applies a partial update. Returns nil, nil for unknown IDs.
func (s *Service) UpdateWebhook(id string, update WebhookUpdate) (*Webhook, error) {
	hook, err := s.registry.Update(id, update)
	if err == nil && hook != nil {
		s.updateWebhookGauges()
	}
	return hook, err
}

// DeleteWebhook removes a webhook, reporting whether it existed.
func (s *Service) DeleteWebhook(id string) bool {
	deleted := s.registry.Delete(id)
	if deleted {
		s.updateWebhookGauges()
	}
	return deleted
}

// ListWebhooks lists webhooks, optionally scoped to a project (global
// webhooks always included) and to active ones only.
func (s *Service) ListWebhooks(projectID *string, activeOnly bool) []*Webhook {
	return s.registry.List(projectID, activeOnly)
}

// SendEvent dispatches an event to every subscribed, active webhook whose
// project scope matches. It returns the IDs of the deliveries created,
// once every delivery has reached a terminal state. Delivery failures are
// recorded on the deliveries themselves and never returned as errors.
func (s *Service) SendEvent(ctx context.Context, event EventType, projectID *string, data map[string]any) ([]string, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("unknown event type %q", event)
	}

	s.mu.Lock()
	s.totalEvents++
	s.mu.Unlock()
	s.metrics.ObserveEvent(string(event))

	matching := s.registry.Match(event, projectID)
	if len(matching) == 0 {
		return []string{}, nil
	}

	payload, err := json.Marshal(Envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ProjectID: projectID,
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	ids := make([]string, 0, len(matching))
	deliveries := make([]*Delivery, 0, len(matching))
	for _, hook := range matching {
		delivery := newDelivery(hook.ID, event, payload)
		s.ledger.Add(delivery)
		ids = append(ids, delivery.ID)
		deliveries = append(deliveries, delivery)
	}

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)
	for i := range matching {
		hook, delivery := matching[i], deliveries[i]
		g.Go(func() error {
			s.deliver(ctx, hook, delivery)
			return nil
		})
	}
	g.Wait()

	return ids, nil
}

// GetDelivery retrieves a delivery record by ID.
func (s *Service) GetDelivery(id string) (*Delivery, bool) {
	return s.ledger.Get(id)
}

// ListDeliveries lists delivery records, newest first.
func (s *Service) ListDeliveries(webhookID string, status DeliveryStatus, limit int) []*Delivery {
	return s.ledger.List(webhookID, status, limit)
}

// TestWebhook synthesizes a one-off system.health delivery for the given
// webhook, bypassing the subscription matching rule entirely. It returns
// false when the webhook does not exist.
func (s *Service) TestWebhook(ctx context.Context, webhookID string) (*Delivery, bool) {
	hook, ok := s.registry.Get(webhookID)
	if !ok {
		return nil, false
	}

	payload, err := json.Marshal(Envelope{
		Event:     EventSystemHealth,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ProjectID: hook.Config.ProjectID,
		Data: map[string]any{
			"message":    "webhook test delivery",
			"webhook_id": hook.ID,
		},
	})
	if err != nil {
		return nil, false
	}

	delivery := newDelivery(hook.ID, EventSystemHealth, payload)
	s.ledger.Add(delivery)
	s.deliver(ctx, hook, delivery)
	return delivery, true
}

// RetryDelivery re-enters the state machine for a delivery currently in a
// retryable state (failed or retrying). It is a no-op returning false for
// unknown IDs or non-retryable states.
func (s *Service) RetryDelivery(ctx context.Context, id string) bool {
	delivery, ok := s.ledger.Get(id)
	if !ok {
		return false
	}
	if delivery.Status != DeliveryStatusFailed && delivery.Status != DeliveryStatusRetrying {
		return false
	}
	hook, ok := s.registry.Get(delivery.WebhookID)
	if !ok {
		return false
	}

	delivery.Attempts = 0
	delivery.ErrorMessage = ""
	delivery.Status = DeliveryStatusPending
	delivery.NextRetryAt = nil
	s.ledger.Sync(delivery)

	s.deliver(ctx, hook, delivery)
	return true
}

// GetStats returns a snapshot of the service counters.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	stats := Stats{
		TotalEvents:          s.totalEvents,
		SuccessfulDeliveries: s.successfulDeliveries,
		FailedDeliveries:     s.failedDeliveries,
		RetriedDeliveries:    s.retriedDeliveries,
	}
	s.mu.Unlock()

	stats.TotalWebhooks, stats.ActiveWebhooks = s.registry.Counts()
	stats.PendingDeliveries = s.ledger.CountInFlight()
	return stats
}

// deliver runs one delivery to a terminal state and records the outcome
// on the owning webhook and the service counters. The hook is a snapshot,
// so its configuration stays frozen for the whole attempt loop even if
// the webhook is updated concurrently.
func (s *Service) deliver(ctx context.Context, hook *Webhook, delivery *Delivery) {
	start := time.Now()
	retried := s.executor.Execute(ctx, hook, delivery)
	duration := time.Since(start)

	success := delivery.Status == DeliveryStatusSuccess
	s.registry.RecordDelivery(hook.ID, success, time.Now().UTC())

	s.mu.Lock()
	s.retriedDeliveries += int64(retried)
	if success {
		s.successfulDeliveries++
	} else {
		s.failedDeliveries++
	}
	s.mu.Unlock()

	s.metrics.ObserveDelivery(string(delivery.Status), duration)
	s.metrics.ObserveRetries(retried)
}

func (s *Service) updateWebhookGauges() {
	total, active := s.registry.Counts()
	s.metrics.SetWebhookCounts(total, active)
}

func newDelivery(webhookID string, event EventType, payload []byte) *Delivery {
	return &Delivery{
		ID:        uuid.NewString(),
		WebhookID: webhookID,
		Event:     event,
		Payload:   payload,
		Status:    DeliveryStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
