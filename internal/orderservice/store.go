package orderservice

import (
	"context"
	"sync"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
)

type Store interface {
	// CreateOrder persists the order and its OrderCreated outbox event
	// atomically, filling in the generated id.
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)

	// Outbox access for the background processor.
	PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// MemoryStore keeps orders and outbox rows in memory for tests and DB-less
// runs. It also implements the consumer's idempotent confirm step so the full
// create → publish → confirm flow can run without Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	orders    map[int64]model.Order
	outbox    []model.OutboxEvent
	processed map[string]bool
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[int64]model.Order),
		processed: make(map[string]bool),
	}
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.ID = s.nextID

	event, err := newOrderCreatedEvent(o)
	if err != nil {
		return err
	}

	s.orders[o.ID] = *o
	s.outbox = append(s.outbox, *event)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "order %d does not exist", id)
	}
	return &o, nil
}

func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *MemoryStore) PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.outbox)
	if n > limit {
		n = limit
	}
	events := make([]model.OutboxEvent, n)
	copy(events, s.outbox[:n])
	return events, nil
}

func (s *MemoryStore) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.outbox {
		if e.ID == id {
			s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
			return nil
		}
	}
	return nil
}

// ConfirmOrder applies the OrderCreated event at most once per message id.
func (s *MemoryStore) ConfirmOrder(ctx context.Context, messageID string, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processed[messageID] {
		return false, nil
	}

	o, ok := s.orders[orderID]
	if ok {
		o.Status = model.OrderStatusConfirmed
		s.orders[orderID] = o
	}
	s.processed[messageID] = true
	return true, nil
}
