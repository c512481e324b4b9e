package orderservice

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

// CreateOrder inserts the order and its outbox event in a single transaction,
// so an order without its OrderCreated event (or the reverse) can never be
// observed.
func (s *PostgresStore) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op once committed.
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, product, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, o.UserID, o.Product, o.Status, o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	event, err := newOrderCreatedEvent(o)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.ID, event.AggregateID, event.Payload, event.Status, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	err := s.db.QueryRow(ctx,
		"SELECT id, user_id, product, status, created_at FROM orders WHERE id = $1", id,
	).Scan(&o.ID, &o.UserID, &o.Product, &o.Status, &o.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "order %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %d: %w", id, err)
	}
	return &o, nil
}

// PendingEvents locks a batch of outbox rows so concurrent processors never
// double-publish within one tick.
func (s *PostgresStore) PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, aggregate_id, payload, status
		FROM outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []model.OutboxEvent
	for rows.Next() {
		var e model.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.Payload, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM outbox WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete outbox event %s: %w", id, err)
	}
	return nil
}
