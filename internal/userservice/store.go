package userservice

import (
	"context"
	"sync"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
)

type Store interface {
	// GetUser returns the user or an apperr.KindNotFound error.
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, name, email string) (*model.User, error)
}

// MemoryStore keeps users in a mutex-guarded map. Used by tests and DB-less
// demo runs.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]model.User
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]model.User)}
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user %d does not exist", id)
	}
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	u := model.User{ID: s.nextID, Name: name, Email: email}
	s.users[u.ID] = u
	return &u, nil
}
