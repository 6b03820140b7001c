package webhooks

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation is wrapped by every configuration validation failure.
var ErrValidation = errors.New("invalid webhook configuration")

// RetryConfig configures retry behavior for a webhook
type RetryConfig struct {
	MaxRetries        int           `json:"max_retries"`
	InitialDelay      time.Duration `json:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// WebhookConfig holds the caller-supplied configuration of a webhook.
// ProjectID of nil means "global": the webhook matches every project.
type WebhookConfig struct {
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Secret      string            `json:"secret,omitempty"`
	Events      []EventType       `json:"events"`
	Active      bool              `json:"active"`
	Headers     map[string]string `json:"headers,omitempty"`
	RetryConfig RetryConfig       `json:"retry_config"`
	ProjectID   *string           `json:"project_id,omitempty"`
}

// Validate checks the configuration. An invalid configuration must never
// be stored, so Create and Update call this before committing anything.
func (c WebhookConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("%w: url must start with http:// or https://", ErrValidation)
	}
	for _, e := range c.Events {
		if !e.Valid() {
			return fmt.Errorf("%w: unknown event type %q", ErrValidation, e)
		}
	}
	return nil
}

// SubscribedTo reports whether the webhook subscribes to the event type.
// An empty event set means the webhook never fires.
func (c WebhookConfig) SubscribedTo(event EventType) bool {
	for _, e := range c.Events {
		if e == event {
			return true
		}
	}
	return false
}

// MatchesProject implements the load-bearing scoping rule: a nil (global)
// project id matches every project.
func (c WebhookConfig) MatchesProject(projectID *string) bool {
	if c.ProjectID == nil {
		return true
	}
	return projectID != nil && *c.ProjectID == *projectID
}

// Webhook is a registered webhook together with its delivery counters.
// Counters are mutated by the registry after each terminal delivery outcome
// and always satisfy SuccessCount + FailureCount == DeliveryCount.
type Webhook struct {
	ID              string        `json:"id"`
	Config          WebhookConfig `json:"config"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	LastTriggeredAt *time.Time    `json:"last_triggered_at,omitempty"`
	DeliveryCount   int64         `json:"delivery_count"`
	SuccessCount    int64         `json:"success_count"`
	FailureCount    int64         `json:"failure_count"`
}

// clone returns a value snapshot safe to hand outside the registry lock.
// The slice and map fields inside Config are replaced wholesale on update,
// never mutated in place, so a shallow copy suffices.
func (h *Webhook) clone() *Webhook {
	c := *h
	return &c
}
