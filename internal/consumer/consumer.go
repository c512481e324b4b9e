// Package consumer applies OrderCreated events to the order store. Delivery
// is at-least-once, so every message is deduplicated by its id before any
// business effect.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"user-order-services/internal/orderservice"
)

// Store performs the idempotent confirm: flip the order to CONFIRMED and
// record the message id in one atomic step. It reports applied=false for a
// duplicate message.
type Store interface {
	ConfirmOrder(ctx context.Context, messageID string, orderID int64) (applied bool, err error)
}

type OrderConsumer struct {
	store Store
}

func NewOrderConsumer(store Store) *OrderConsumer {
	return &OrderConsumer{store: store}
}

func (c *OrderConsumer) HandleMessage(ctx context.Context, messageID string, payload []byte) error {
	var event orderservice.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if event.EventType != orderservice.EventTypeOrderCreated {
		log.Printf("[Consumer] IGNORING event type %q in message %s", event.EventType, messageID)
		return nil
	}

	applied, err := c.store.ConfirmOrder(ctx, messageID, event.OrderID)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("[Consumer] SKIPPING duplicate message %s", messageID)
		return nil
	}

	log.Printf("[Consumer] CONFIRMED order %d (message %s)", event.OrderID, messageID)
	return nil
}
