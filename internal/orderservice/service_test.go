package orderservice

import (
	"context"
	"strconv"
	"testing"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
	"user-order-services/internal/rpc"
)

// lookupFunc adapts a function to the UserLookup interface.
type lookupFunc func(ctx context.Context, id int64) (*model.User, error)

func (f lookupFunc) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return f(ctx, id)
}

func knownUsers(users ...model.User) lookupFunc {
	return func(ctx context.Context, id int64) (*model.User, error) {
		for _, u := range users {
			if u.ID == id {
				return &u, nil
			}
		}
		return nil, apperr.New(apperr.KindNotFound, "user %d does not exist", id)
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, knownUsers(model.User{ID: 1, Name: "Ana", Email: "ana@x.com"}))

	order, err := svc.CreateOrder(context.Background(), 1, "Book")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if order.UserID != 1 {
		t.Errorf("expected order for user 1, got %d", order.UserID)
	}
	if order.Product != "Book" {
		t.Errorf("expected product Book, got %s", order.Product)
	}
	if order.ID <= 0 {
		t.Errorf("expected a generated id, got %d", order.ID)
	}
	if order.Status != model.OrderStatusPending {
		t.Errorf("expected status PENDING, got %s", order.Status)
	}

	got, err := svc.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("expected persisted order, got %v", err)
	}
	if got.UserID != 1 {
		t.Errorf("persisted order has user %d", got.UserID)
	}
}

func TestCreateOrderUnknownUser(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, knownUsers())

	_, err := svc.CreateOrder(context.Background(), 99, "Book")
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if store.OrderCount() != 0 {
		t.Error("no order may be persisted for an unknown user")
	}
}

func TestCreateOrderTransportFailure(t *testing.T) {
	store := NewMemoryStore()
	down := lookupFunc(func(ctx context.Context, id int64) (*model.User, error) {
		return nil, apperr.Wrap(apperr.KindTransport, rpc.ErrConnectionFailed, "lookup user %d", id)
	})
	svc := NewService(store, down)

	_, err := svc.CreateOrder(context.Background(), 1, "Book")
	if !apperr.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if apperr.IsNotFound(err) {
		t.Error("could-not-verify must never classify as not-found")
	}
	if store.OrderCount() != 0 {
		t.Error("no order may be persisted when the user cannot be verified")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewService(NewMemoryStore(), knownUsers(model.User{ID: 1}))

	if _, err := svc.CreateOrder(context.Background(), 0, "Book"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for user id 0, got %v", err)
	}
	if _, err := svc.CreateOrder(context.Background(), 1, ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty product, got %v", err)
	}
}

func TestCreateOrderWritesOutboxEvent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, knownUsers(model.User{ID: 1}))

	order, err := svc.CreateOrder(context.Background(), 1, "Book")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	events, err := store.PendingEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one outbox event, got %d", len(events))
	}
	if events[0].AggregateID != strconv.FormatInt(order.ID, 10) {
		t.Errorf("expected the event to reference order %d, got aggregate %s", order.ID, events[0].AggregateID)
	}
}
