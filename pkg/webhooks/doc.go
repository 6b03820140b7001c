// Package webhooks implements the webhook delivery subsystem: registration,
// event fan-out, per-delivery retries with exponential backoff, HMAC payload
// signing, outbound throttling, and a bounded delivery ledger.
//
// # Overview
//
// A Service instance owns a webhook Registry, a DeliveryStore ledger, and a
// delivery Executor. Domain event producers call SendEvent; the service
// matches the event against subscribed, active webhooks (scoped by project,
// with nil project meaning global) and runs one delivery per match through
// the retry state machine.
//
// # Delivery state machine
//
//	pending -> sending -> success
//	pending -> sending -> retrying -> sending -> ... -> failed
//	pending -> failed (outbound HTTP capability unavailable)
//
// Attempts are bounded to MaxRetries+1. Backoff between attempts is
// min(initialDelay * multiplier^(attempt-1), maxDelay); with the defaults
// (3 retries, 1s initial, x2) the delay sequence is 1s, 2s, 4s.
//
// # Signing
//
// When a webhook has a secret configured, each request carries
//
//	X-Webhook-Signature: sha256=<hex hmac>
//
// computed with HMAC-SHA256 over the exact bytes transmitted.
//
// # Usage
//
//	svc := webhooks.NewService(webhooks.DefaultConfig(), &http.Client{}, logger, metrics)
//	hook, err := svc.CreateWebhook(webhooks.WebhookConfig{
//		Name:   "audit-sink",
//		URL:    "https://api.example.com/hooks",
//		Events: []webhooks.EventType{webhooks.EventEntityCreated},
//		Active: true,
//	})
//	ids, err := svc.SendEvent(ctx, webhooks.EventEntityCreated, nil, map[string]any{"id": "e1"})
//
// Deliveries are fire-and-forget with at-least-once semantics up to the
// retry budget; state is held in memory only.
package webhooks
