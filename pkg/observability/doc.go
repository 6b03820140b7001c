// Package observability provides Prometheus metrics and health probe
// handlers for the webhook delivery service.
package observability
