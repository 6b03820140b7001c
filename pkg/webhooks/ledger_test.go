package webhooks

import (
	"fmt"
	"testing"
	"time"
)

func testDelivery(id, webhookID string, status DeliveryStatus, createdAt time.Time) *Delivery {
	return &Delivery{
		ID:        id,
		WebhookID: webhookID,
		Event:     EventEntityCreated,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestDeliveryStore_AddAndGet(t *testing.T) {
	store := NewDeliveryStore(10)

	d := testDelivery("d1", "w1", DeliveryStatusPending, time.Now())
	store.Add(d)

	got, ok := store.Get("d1")
	if !ok {
		t.Fatal("Expected delivery to be retrievable")
	}
	if got.ID != "d1" {
		t.Errorf("Expected ID d1, got %s", got.ID)
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("Expected missing delivery to not be found")
	}
}

func TestDeliveryStore_SnapshotIsolation(t *testing.T) {
	store := NewDeliveryStore(10)

	working := testDelivery("d1", "w1", DeliveryStatusPending, time.Now())
	store.Add(working)

	// Mutating the working record must not leak into the store until Sync.
	working.Status = DeliveryStatusSending
	working.Attempts = 1

	got, _ := store.Get("d1")
	if got.Status != DeliveryStatusPending || got.Attempts != 0 {
		t.Errorf("Expected stored snapshot to stay pending, got %s with %d attempts", got.Status, got.Attempts)
	}

	store.Sync(working)
	got, _ = store.Get("d1")
	if got.Status != DeliveryStatusSending || got.Attempts != 1 {
		t.Errorf("Expected Sync to publish sending/1, got %s/%d", got.Status, got.Attempts)
	}

	// Mutating a returned copy must not leak back either.
	got.Status = DeliveryStatusFailed
	again, _ := store.Get("d1")
	if again.Status != DeliveryStatusSending {
		t.Errorf("Expected stored record untouched by reader mutation, got %s", again.Status)
	}

	listed := store.List("", "", 0)
	listed[0].Status = DeliveryStatusFailed
	again, _ = store.Get("d1")
	if again.Status != DeliveryStatusSending {
		t.Errorf("Expected stored record untouched by list mutation, got %s", again.Status)
	}
}

func TestDeliveryStore_SyncAfterEviction(t *testing.T) {
	store := NewDeliveryStore(1)
	now := time.Now()

	evicted := testDelivery("d1", "w1", DeliveryStatusPending, now)
	store.Add(evicted)
	store.Add(testDelivery("d2", "w1", DeliveryStatusPending, now.Add(time.Millisecond)))

	// Syncing an evicted delivery is dropped, not resurrected.
	evicted.Status = DeliveryStatusSuccess
	store.Sync(evicted)

	if _, ok := store.Get("d1"); ok {
		t.Error("Expected evicted delivery to stay gone after Sync")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 stored delivery, got %d", store.Len())
	}
}

func TestDeliveryStore_FIFOEviction(t *testing.T) {
	store := NewDeliveryStore(3)
	now := time.Now()

	for i := 1; i <= 4; i++ {
		store.Add(testDelivery(fmt.Sprintf("d%d", i), "w1", DeliveryStatusSuccess, now.Add(time.Duration(i)*time.Millisecond)))
	}

	if store.Len() != 3 {
		t.Fatalf("Expected store to hold 3 deliveries, got %d", store.Len())
	}

	// The very first inserted entry is gone, everything else survives.
	if _, ok := store.Get("d1"); ok {
		t.Error("Expected oldest delivery d1 to be evicted")
	}
	for i := 2; i <= 4; i++ {
		if _, ok := store.Get(fmt.Sprintf("d%d", i)); !ok {
			t.Errorf("Expected delivery d%d to survive", i)
		}
	}
}

func TestDeliveryStore_EvictionIsInsertionOrderNotAccessOrder(t *testing.T) {
	store := NewDeliveryStore(2)
	now := time.Now()

	store.Add(testDelivery("d1", "w1", DeliveryStatusSuccess, now))
	store.Add(testDelivery("d2", "w1", DeliveryStatusSuccess, now.Add(time.Millisecond)))

	// Touching d1 must not protect it from eviction.
	store.Get("d1")
	store.Add(testDelivery("d3", "w1", DeliveryStatusSuccess, now.Add(2*time.Millisecond)))

	if _, ok := store.Get("d1"); ok {
		t.Error("Expected d1 to be evicted despite recent access")
	}
	if _, ok := store.Get("d2"); !ok {
		t.Error("Expected d2 to survive")
	}
}

func TestDeliveryStore_List(t *testing.T) {
	store := NewDeliveryStore(100)
	now := time.Now()

	store.Add(testDelivery("d1", "w1", DeliveryStatusSuccess, now))
	store.Add(testDelivery("d2", "w2", DeliveryStatusFailed, now.Add(time.Millisecond)))
	store.Add(testDelivery("d3", "w1", DeliveryStatusFailed, now.Add(2*time.Millisecond)))

	t.Run("newest first", func(t *testing.T) {
		result := store.List("", "", 0)
		if len(result) != 3 {
			t.Fatalf("Expected 3 deliveries, got %d", len(result))
		}
		if result[0].ID != "d3" || result[2].ID != "d1" {
			t.Errorf("Expected order d3..d1, got %s..%s", result[0].ID, result[2].ID)
		}
	})

	t.Run("filter by webhook", func(t *testing.T) {
		result := store.List("w1", "", 0)
		if len(result) != 2 {
			t.Fatalf("Expected 2 deliveries for w1, got %d", len(result))
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		result := store.List("", DeliveryStatusFailed, 0)
		if len(result) != 2 {
			t.Fatalf("Expected 2 failed deliveries, got %d", len(result))
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		result := store.List("w1", DeliveryStatusFailed, 0)
		if len(result) != 1 || result[0].ID != "d3" {
			t.Fatalf("Expected only d3, got %v", result)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		result := store.List("", "", 2)
		if len(result) != 2 {
			t.Fatalf("Expected 2 deliveries, got %d", len(result))
		}
	})
}

func TestDeliveryStore_CountInFlight(t *testing.T) {
	store := NewDeliveryStore(100)
	now := time.Now()

	store.Add(testDelivery("d1", "w1", DeliveryStatusPending, now))
	store.Add(testDelivery("d2", "w1", DeliveryStatusRetrying, now))
	store.Add(testDelivery("d3", "w1", DeliveryStatusSuccess, now))
	store.Add(testDelivery("d4", "w1", DeliveryStatusFailed, now))

	if got := store.CountInFlight(); got != 2 {
		t.Errorf("Expected 2 in-flight deliveries, got %d", got)
	}
}
