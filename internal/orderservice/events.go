package orderservice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"user-order-services/internal/model"
)

const EventTypeOrderCreated = "OrderCreated"

// OrderCreatedEvent is the outbox payload published after an order is
// persisted. The consumer flips the order to CONFIRMED when it arrives.
type OrderCreatedEvent struct {
	EventType string `json:"event_type"`
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	Product   string `json:"product"`
	Timestamp int64  `json:"timestamp"`
}

// newOrderCreatedEvent builds the outbox row for an order. Store
// implementations call it inside the same atomic section that persists the
// order, once the generated id is known.
func newOrderCreatedEvent(o *model.Order) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(OrderCreatedEvent{
		EventType: EventTypeOrderCreated,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Product:   o.Product,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &model.OutboxEvent{
		ID:          uuid.New().String(),
		AggregateID: strconv.FormatInt(o.ID, 10),
		Payload:     payload,
		Status:      "PENDING",
		CreatedAt:   time.Now(),
	}, nil
}
