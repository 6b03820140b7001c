package webhooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// responseBodyLimit bounds how much of a receiver's response body is
// recorded on the delivery.
const responseBodyLimit = 1024

// HTTPDoer abstracts the outbound HTTP client so tests and callers can
// inject their own transport. A nil client makes every delivery fail
// immediately without retries.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Executor drives a delivery through the retry state machine:
//
//	pending -> sending -> success
//	pending -> sending -> retrying -> sending -> ... -> failed
//	pending -> failed (no HTTP client installed)
type Executor struct {
	client   HTTPDoer
	throttle *Throttle
	timeout  time.Duration
	logger   *logrus.Logger

	// sink, when set, receives a snapshot of the working record after
	// every state transition so concurrent readers never observe a
	// record mid-mutation.
	sink func(*Delivery)
}

// NewExecutor creates a delivery executor. The timeout bounds each
// individual HTTP attempt.
func NewExecutor(client HTTPDoer, throttle *Throttle, timeout time.Duration, logger *logrus.Logger) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if throttle == nil {
		throttle = NewThrottle(0)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		client:   client,
		throttle: throttle,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute runs the delivery to a terminal state, mutating the working
// record in place through every attempt. The record must be exclusively
// owned by the caller; shared stores observe it only through the sink.
// The attempt loop is bounded to MaxRetries+1 iterations. It returns the
// number of retry transitions performed, for the service's
// retried-deliveries counter.
func (e *Executor) Execute(ctx context.Context, hook *Webhook, delivery *Delivery) (retried int) {
	if e.client == nil {
		// Fatal: the outbound HTTP capability is unavailable.
		now := time.Now().UTC()
		delivery.Status = DeliveryStatusFailed
		delivery.ErrorMessage = "http client not configured"
		delivery.LastAttemptAt = &now
		e.publish(delivery)
		return 0
	}

	policy := NewRetryPolicy(hook.Config.RetryConfig)

	for {
		if err := e.throttle.Wait(ctx); err != nil {
			delivery.Status = DeliveryStatusFailed
			delivery.ErrorMessage = fmt.Sprintf("request error: %v", err)
			e.publish(delivery)
			return retried
		}

		now := time.Now().UTC()
		delivery.Attempts++
		delivery.LastAttemptAt = &now
		delivery.Status = DeliveryStatusSending
		delivery.NextRetryAt = nil
		e.publish(delivery)

		err := e.attempt(ctx, hook, delivery)
		if err == nil {
			delivery.Status = DeliveryStatusSuccess
			delivery.ErrorMessage = ""
			e.publish(delivery)
			e.logger.WithFields(logrus.Fields{
				"delivery_id": delivery.ID,
				"webhook_id":  hook.ID,
				"attempts":    delivery.Attempts,
			}).Debug("webhook delivered")
			return retried
		}

		delivery.ErrorMessage = err.Error()

		if !policy.ShouldRetry(delivery.Attempts) {
			delivery.Status = DeliveryStatusFailed
			e.publish(delivery)
			e.logger.WithFields(logrus.Fields{
				"delivery_id": delivery.ID,
				"webhook_id":  hook.ID,
				"attempts":    delivery.Attempts,
				"error":       err.Error(),
			}).Warn("webhook delivery failed, retries exhausted")
			return retried
		}

		delivery.Status = DeliveryStatusRetrying
		retried++
		delay := policy.NextDelay(delivery.Attempts)
		next := time.Now().UTC().Add(delay)
		delivery.NextRetryAt = &next
		e.publish(delivery)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			delivery.Status = DeliveryStatusFailed
			delivery.ErrorMessage = fmt.Sprintf("request error: %v", ctx.Err())
			e.publish(delivery)
			return retried
		case <-timer.C:
		}
	}
}

func (e *Executor) publish(d *Delivery) {
	if e.sink != nil {
		e.sink(d)
	}
}

// attempt performs one HTTP POST. A nil return means a 2xx response;
// the response code and truncated body are recorded either way.
func (e *Executor) attempt(ctx context.Context, hook *Webhook, delivery *Delivery) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, hook.Config.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return fmt.Errorf("unexpected error: %v", err)
	}

	for key, value := range hook.Config.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.Config.Secret != "" {
		// Signed over the exact bytes being transmitted.
		req.Header.Set(SignatureHeader, Sign(delivery.Payload, hook.Config.Secret))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return errors.New("timeout")
		}
		return fmt.Errorf("request error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	delivery.ResponseCode = resp.StatusCode
	delivery.ResponseBody = string(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
