package webhooks

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"
)

// DefaultListLimit bounds List results when no limit is given.
const DefaultListLimit = 50

// Delivery records one attempt-sequence of sending an event payload to a
// webhook. The executor mutates its own working record through every
// attempt and publishes snapshots into the store via Sync, so records
// handed out by Get and List are never written to concurrently.
// WebhookID is a lookup-only reference.
type Delivery struct {
	ID            string          `json:"id"`
	WebhookID     string          `json:"webhook_id"`
	Event         EventType       `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        DeliveryStatus  `json:"status"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	ResponseCode  int             `json:"response_code,omitempty"`
	ResponseBody  string          `json:"response_body,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DeliveryStore is a capacity-bounded, insertion-ordered store of delivery
// records. When full it evicts the oldest inserted entry first (strict FIFO,
// not least-recently-used).
type DeliveryStore struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // of *Delivery, oldest at the front
	max     int
}

// NewDeliveryStore creates a delivery store holding at most max entries.
func NewDeliveryStore(max int) *DeliveryStore {
	if max <= 0 {
		max = 1000
	}
	return &DeliveryStore{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		max:     max,
	}
}

// Add inserts a snapshot of the delivery, evicting the oldest entry if at
// capacity. The caller keeps its own working record; later state changes
// reach the store through Sync.
func (s *DeliveryStore) Add(d *Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.order.Len() >= s.max {
		front := s.order.Front()
		if front != nil {
			evicted := s.order.Remove(front).(*Delivery)
			delete(s.entries, evicted.ID)
		}
	}
	stored := *d
	s.entries[stored.ID] = s.order.PushBack(&stored)
}

// Sync overwrites the stored record with the current state of the working
// record. Deliveries already evicted are dropped silently.
func (s *DeliveryStore) Sync(d *Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[d.ID]; ok {
		*elem.Value.(*Delivery) = *d
	}
}

// Get retrieves a copy of a delivery by ID.
func (s *DeliveryStore) Get(id string) (*Delivery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elem, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	d := *elem.Value.(*Delivery)
	return &d, true
}

// List returns copies of deliveries sorted by creation time descending, optionally
// filtered by webhook ID and status, truncated to limit (DefaultListLimit
// when limit <= 0).
func (s *DeliveryStore) List(webhookID string, status DeliveryStatus, limit int) []*Delivery {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Insertion order is creation order, so walking back-to-front
	// yields created_at descending.
	result := make([]*Delivery, 0, limit)
	for elem := s.order.Back(); elem != nil && len(result) < limit; elem = elem.Prev() {
		stored := elem.Value.(*Delivery)
		if webhookID != "" && stored.WebhookID != webhookID {
			continue
		}
		if status != "" && stored.Status != status {
			continue
		}
		d := *stored
		result = append(result, &d)
	}
	return result
}

// Len returns the number of stored deliveries.
func (s *DeliveryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// CountInFlight returns the number of deliveries that have not reached a
// terminal state (pending or retrying).
func (s *DeliveryStore) CountInFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		switch elem.Value.(*Delivery).Status {
		case DeliveryStatusPending, DeliveryStatusRetrying:
			count++
		}
	}
	return count
}
