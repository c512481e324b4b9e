package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"user-order-services/internal/orderservice"
)

type fakeStore struct {
	processed map[string]bool
	confirmed []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{processed: make(map[string]bool)}
}

func (s *fakeStore) ConfirmOrder(ctx context.Context, messageID string, orderID int64) (bool, error) {
	if s.processed[messageID] {
		return false, nil
	}
	s.processed[messageID] = true
	s.confirmed = append(s.confirmed, orderID)
	return true, nil
}

func orderCreated(t *testing.T, orderID int64) []byte {
	t.Helper()
	payload, err := json.Marshal(orderservice.OrderCreatedEvent{
		EventType: orderservice.EventTypeOrderCreated,
		OrderID:   orderID,
		UserID:    1,
		Product:   "Book",
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return payload
}

func TestDuplicateDeliveryAppliedOnce(t *testing.T) {
	store := newFakeStore()
	c := NewOrderConsumer(store)
	payload := orderCreated(t, 7)

	if err := c.HandleMessage(context.Background(), "msg-1", payload); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := c.HandleMessage(context.Background(), "msg-1", payload); err != nil {
		t.Fatalf("redelivery must be acknowledged, got %v", err)
	}

	if len(store.confirmed) != 1 || store.confirmed[0] != 7 {
		t.Errorf("expected order 7 confirmed exactly once, got %v", store.confirmed)
	}
}

func TestDistinctMessagesBothApplied(t *testing.T) {
	store := newFakeStore()
	c := NewOrderConsumer(store)

	if err := c.HandleMessage(context.Background(), "msg-1", orderCreated(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleMessage(context.Background(), "msg-2", orderCreated(t, 2)); err != nil {
		t.Fatal(err)
	}
	if len(store.confirmed) != 2 {
		t.Errorf("expected both orders confirmed, got %v", store.confirmed)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	c := NewOrderConsumer(newFakeStore())
	if err := c.HandleMessage(context.Background(), "msg-1", []byte("{not json")); err == nil {
		t.Error("expected an error for a malformed payload")
	}
}

func TestForeignEventTypeIgnored(t *testing.T) {
	store := newFakeStore()
	c := NewOrderConsumer(store)

	payload, _ := json.Marshal(map[string]any{"event_type": "UserDeleted", "order_id": 9})
	if err := c.HandleMessage(context.Background(), "msg-1", payload); err != nil {
		t.Fatalf("foreign events should be acknowledged, got %v", err)
	}
	if len(store.confirmed) != 0 {
		t.Error("foreign events must have no effect")
	}
}
