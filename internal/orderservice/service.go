// Package orderservice owns order records. Before persisting an order it
// confirms the referenced user exists by calling the user service; the two
// datastores are never shared.
package orderservice

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
	"user-order-services/internal/rpc"
)

const PatternCreateOrder = "order.create"

type CreateOrderRequest struct {
	UserID  int64  `json:"user_id"`
	Product string `json:"product"`
}

// UserLookup answers whether a user exists. Implemented by the user service's
// rpc client; tests substitute fakes.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

type Service struct {
	store Store
	users UserLookup
}

func NewService(store Store, users UserLookup) *Service {
	return &Service{store: store, users: users}
}

// CreateOrder validates the request, confirms the user exists and persists
// the order together with its OrderCreated outbox event.
//
// The user check and the insert are not atomic across services: the invariant
// is that the user existed at creation time, nothing more.
func (s *Service) CreateOrder(ctx context.Context, userID int64, product string) (*model.Order, error) {
	if userID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id must be a positive integer, got %d", userID)
	}
	if product == "" {
		return nil, apperr.New(apperr.KindValidation, "product is required")
	}

	// Blocks until the user service replies or the call fails. A transport
	// failure surfaces as-is: "could not verify" must never look like
	// "user does not exist".
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:    u.ID,
		Product:   product,
		Status:    model.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	log.Printf("[OrderService] Created order %d for user %d (%s)", order.ID, order.UserID, order.Product)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// Register exposes order creation on the rpc transport alongside the HTTP
// entry point.
func (s *Service) Register(srv *rpc.Server) {
	srv.Handle(PatternCreateOrder, s.handleCreateOrder)
}

func (s *Service) handleCreateOrder(ctx context.Context, payload json.RawMessage) (any, error) {
	var req CreateOrderRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed order.create payload")
	}
	return s.CreateOrder(ctx, req.UserID, req.Product)
}
