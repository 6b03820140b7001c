package webhooks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/quarryhq/dispatch/pkg/httputil"
)

// Handlers provides the HTTP surface over the delivery service for the
// surrounding application.
type Handlers struct {
	service *Service
}

// NewHandlers creates webhook HTTP handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the webhook routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks", h.createWebhook).Methods("POST")
	router.HandleFunc("/webhooks", h.listWebhooks).Methods("GET")
	router.HandleFunc("/webhooks/{id}", h.getWebhook).Methods("GET")
	router.HandleFunc("/webhooks/{id}", h.updateWebhook).Methods("PUT", "PATCH")
	router.HandleFunc("/webhooks/{id}", h.deleteWebhook).Methods("DELETE")
	router.HandleFunc("/webhooks/{id}/test", h.testWebhook).Methods("POST")
	router.HandleFunc("/deliveries", h.listDeliveries).Methods("GET")
	router.HandleFunc("/deliveries/{id}", h.getDelivery).Methods("GET")
	router.HandleFunc("/deliveries/{id}/retry", h.retryDelivery).Methods("POST")
	router.HandleFunc("/events", h.sendEvent).Methods("POST")
	router.HandleFunc("/stats", h.getStats).Methods("GET")
}

type retryConfigRequest struct {
	MaxRetries        *int     `json:"max_retries"`
	InitialDelay      *float64 `json:"initial_delay"`
	MaxDelay          *float64 `json:"max_delay"`
	BackoffMultiplier *float64 `json:"backoff_multiplier"`
}

type webhookRequest struct {
	Name        string              `json:"name"`
	URL         string              `json:"url"`
	Secret      string              `json:"secret"`
	Events      []string            `json:"events"`
	Active      *bool               `json:"active"`
	Headers     map[string]string   `json:"headers"`
	RetryConfig *retryConfigRequest `json:"retry_config"`
	ProjectID   *string             `json:"project_id"`
}

func (r webhookRequest) toConfig() (WebhookConfig, error) {
	events := make([]EventType, 0, len(r.Events))
	for _, s := range r.Events {
		event, err := ParseEventType(s)
		if err != nil {
			return WebhookConfig{}, err
		}
		events = append(events, event)
	}

	retry := DefaultRetryConfig()
	if rc := r.RetryConfig; rc != nil {
		if rc.MaxRetries != nil {
			retry.MaxRetries = *rc.MaxRetries
		}
		if rc.InitialDelay != nil {
			retry.InitialDelay = time.Duration(*rc.InitialDelay * float64(time.Second))
		}
		if rc.MaxDelay != nil {
			retry.MaxDelay = time.Duration(*rc.MaxDelay * float64(time.Second))
		}
		if rc.BackoffMultiplier != nil {
			retry.BackoffMultiplier = *rc.BackoffMultiplier
		}
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return WebhookConfig{
		Name:        r.Name,
		URL:         r.URL,
		Secret:      r.Secret,
		Events:      events,
		Active:      active,
		Headers:     r.Headers,
		RetryConfig: retry,
		ProjectID:   r.ProjectID,
	}, nil
}

// createWebhook handles POST /webhooks
func (h *Handlers) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, "invalid request body: "+err.Error())
		return
	}

	config, err := req.toConfig()
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	hook, err := h.service.CreateWebhook(config)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	httputil.WriteCreated(w, hook)
}

// listWebhooks handles GET /webhooks
func (h *Handlers) listWebhooks(w http.ResponseWriter, r *http.Request) {
	var projectID *string
	if p := r.URL.Query().Get("project_id"); p != "" {
		projectID = &p
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	httputil.WriteSuccess(w, h.service.ListWebhooks(projectID, activeOnly))
}

// getWebhook handles GET /webhooks/{id}
func (h *Handlers) getWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	hook, ok := h.service.GetWebhook(id)
	if !ok {
		httputil.WriteNotFoundError(w, "webhook not found")
		return
	}
	httputil.WriteSuccess(w, hook)
}

// updateWebhook handles PUT/PATCH /webhooks/{id}
func (h *Handlers) updateWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update WebhookUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteValidationError(w, "invalid request body: "+err.Error())
		return
	}

	hook, err := h.service.UpdateWebhook(id, update)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if hook == nil {
		httputil.WriteNotFoundError(w, "webhook not found")
		return
	}
	httputil.WriteSuccess(w, hook)
}

// deleteWebhook handles DELETE /webhooks/{id}
func (h *Handlers) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.service.DeleteWebhook(id) {
		httputil.WriteNotFoundError(w, "webhook not found")
		return
	}
	httputil.WriteNoContent(w)
}

// testWebhook handles POST /webhooks/{id}/test
func (h *Handlers) testWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	delivery, ok := h.service.TestWebhook(r.Context(), id)
	if !ok {
		httputil.WriteNotFoundError(w, "webhook not found")
		return
	}
	httputil.WriteSuccess(w, delivery)
}

// listDeliveries handles GET /deliveries
func (h *Handlers) listDeliveries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var status DeliveryStatus
	if s := query.Get("status"); s != "" {
		parsed, err := ParseDeliveryStatus(s)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		status = parsed
	}

	limit := 0
	if l := query.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			httputil.WriteValidationError(w, "invalid limit")
			return
		}
		limit = parsed
	}

	httputil.WriteSuccess(w, h.service.ListDeliveries(query.Get("webhook_id"), status, limit))
}

// getDelivery handles GET /deliveries/{id}
func (h *Handlers) getDelivery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	delivery, ok := h.service.GetDelivery(id)
	if !ok {
		httputil.WriteNotFoundError(w, "delivery not found")
		return
	}
	httputil.WriteSuccess(w, delivery)
}

// retryDelivery handles POST /deliveries/{id}/retry
func (h *Handlers) retryDelivery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.service.RetryDelivery(r.Context(), id) {
		httputil.WriteErrorMessage(w, http.StatusConflict, "delivery not found or not retryable")
		return
	}
	delivery, _ := h.service.GetDelivery(id)
	httputil.WriteSuccess(w, delivery)
}

type sendEventRequest struct {
	Event     string         `json:"event"`
	ProjectID *string        `json:"project_id"`
	Data      map[string]any `json:"data"`
}

// sendEvent handles POST /events
func (h *Handlers) sendEvent(w http.ResponseWriter, r *http.Request) {
	var req sendEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, "invalid request body: "+err.Error())
		return
	}

	event, err := ParseEventType(req.Event)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	ids, err := h.service.SendEvent(r.Context(), event, req.ProjectID, req.Data)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httputil.WriteValidationError(w, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"delivery_ids": ids})
}

// getStats handles GET /stats
func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.service.GetStats())
}
