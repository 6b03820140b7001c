package webhooks

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WebhookUpdate describes a partial update to a webhook configuration.
// Only non-nil fields are applied. Event values arrive as strings and are
// mapped through the closed event type set.
type WebhookUpdate struct {
	Name      *string           `json:"name,omitempty"`
	URL       *string           `json:"url,omitempty"`
	Secret    *string           `json:"secret,omitempty"`
	Events    []string          `json:"events,omitempty"`
	Active    *bool             `json:"active,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	ProjectID *string           `json:"project_id,omitempty"`
	// ClearProjectID resets the webhook to global scope. A JSON null for
	// project_id is indistinguishable from an absent field, so un-scoping
	// needs an explicit flag.
	ClearProjectID bool `json:"clear_project_id,omitempty"`
}

// Registry is the in-memory store of registered webhooks. Every webhook
// handed out is a value snapshot; the live records, including their
// delivery counters, are only ever touched under the registry's lock.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]*Webhook
}

// NewRegistry creates an empty webhook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]*Webhook)}
}

// Create validates and stores a new webhook, returning it with a generated
// ID. An invalid configuration is rejected before any state is stored.
func (r *Registry) Create(config WebhookConfig) (*Webhook, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	hook := &Webhook{
		ID:        uuid.NewString(),
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.hooks[hook.ID] = hook
	r.mu.Unlock()

	return hook.clone(), nil
}

// Get retrieves a snapshot of a webhook by ID.
func (r *Registry) Get(id string) (*Webhook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.hooks[id]
	if !ok {
		return nil, false
	}
	return hook.clone(), true
}

// Update merges the provided fields into an existing webhook's
// configuration. The merged configuration is validated before being
// committed, so a failed update leaves the webhook untouched.
// Returns nil, nil when the webhook does not exist.
func (r *Registry) Update(id string, update WebhookUpdate) (*Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hook, ok := r.hooks[id]
	if !ok {
		return nil, nil
	}

	merged := hook.Config
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.URL != nil {
		merged.URL = *update.URL
	}
	if update.Secret != nil {
		merged.Secret = *update.Secret
	}
	if update.Events != nil {
		events := make([]EventType, 0, len(update.Events))
		for _, s := range update.Events {
			event, err := ParseEventType(s)
			if err != nil {
				return nil, fmt.Errorf("unknown event type %q", s)
			}
			events = append(events, event)
		}
		merged.Events = events
	}
	if update.Active != nil {
		merged.Active = *update.Active
	}
	if update.Headers != nil {
		merged.Headers = update.Headers
	}
	if update.ClearProjectID {
		merged.ProjectID = nil
	} else if update.ProjectID != nil {
		merged.ProjectID = update.ProjectID
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	hook.Config = merged
	hook.UpdatedAt = time.Now().UTC()
	return hook.clone(), nil
}

// Delete removes a webhook, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[id]; !ok {
		return false
	}
	delete(r.hooks, id)
	return true
}

// List returns webhooks sorted by creation time. When projectID is given
// the result includes global webhooks (nil project) as well as webhooks
// scoped to that project. When activeOnly is set, inactive webhooks are
// excluded.
func (r *Registry) List(projectID *string, activeOnly bool) []*Webhook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Webhook, 0, len(r.hooks))
	for _, hook := range r.hooks {
		if activeOnly && !hook.Config.Active {
			continue
		}
		if projectID != nil && !hook.Config.MatchesProject(projectID) {
			continue
		}
		result = append(result, hook.clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Match returns the active webhooks subscribed to the event whose project
// scope matches the given project ID.
func (r *Registry) Match(event EventType, projectID *string) []*Webhook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Webhook
	for _, hook := range r.hooks {
		if !hook.Config.Active {
			continue
		}
		if !hook.Config.SubscribedTo(event) {
			continue
		}
		if !hook.Config.MatchesProject(projectID) {
			continue
		}
		result = append(result, hook.clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// RecordDelivery updates the webhook's counters after a delivery reaches
// a terminal state. Unknown IDs (webhook deleted mid-flight) are ignored.
func (r *Registry) RecordDelivery(id string, success bool, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hook, ok := r.hooks[id]
	if !ok {
		return
	}
	hook.DeliveryCount++
	if success {
		hook.SuccessCount++
		hook.LastTriggeredAt = &at
	} else {
		hook.FailureCount++
	}
}

// Counts returns the total and active webhook counts.
func (r *Registry) Counts() (total, active int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total = len(r.hooks)
	for _, hook := range r.hooks {
		if hook.Config.Active {
			active++
		}
	}
	return total, active
}
