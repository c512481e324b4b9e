// Package userservice owns user records and answers lookup queries over the
// rpc transport. The order service never reads the user store directly.
package userservice

import (
	"context"
	"encoding/json"
	"log"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
	"user-order-services/internal/rpc"
)

const (
	PatternGetUser    = "user.get"
	PatternCreateUser = "user.create"
)

type GetUserRequest struct {
	ID int64 `json:"id"`
}

// GetUserReply distinguishes "no such user" from errors: an unknown id is a
// valid answer with Found=false, not a failure.
type GetUserReply struct {
	Found bool        `json:"found"`
	User  *model.User `json:"user,omitempty"`
}

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register binds the service's patterns onto the rpc server.
func (s *Service) Register(srv *rpc.Server) {
	srv.Handle(PatternGetUser, s.handleGetUser)
	srv.Handle(PatternCreateUser, s.handleCreateUser)
}

func (s *Service) handleGetUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req GetUserRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed user.get payload")
	}
	if req.ID <= 0 {
		return nil, apperr.New(apperr.KindValidation, "user id must be a positive integer, got %d", req.ID)
	}

	u, err := s.store.GetUser(ctx, req.ID)
	if apperr.IsNotFound(err) {
		return GetUserReply{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return GetUserReply{Found: true, User: u}, nil
}

func (s *Service) handleCreateUser(ctx context.Context, payload json.RawMessage) (any, error) {
	var req CreateUserRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed user.create payload")
	}
	if req.Name == "" || req.Email == "" {
		return nil, apperr.New(apperr.KindValidation, "name and email are required")
	}

	u, err := s.store.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	log.Printf("[UserService] Created user %d (%s)", u.ID, u.Email)
	return u, nil
}
