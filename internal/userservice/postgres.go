package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"user-order-services/internal/apperr"
	"user-order-services/internal/model"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		"SELECT id, name, email FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Name, &u.Email)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "user %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	u := model.User{Name: name, Email: email}
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id
	`, u.Name, u.Email).Scan(&u.ID)

	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &u, nil
}
