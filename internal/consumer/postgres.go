package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"user-order-services/internal/model"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ConfirmOrder runs the dedup check, the status update and the
// processed_messages insert in one transaction, so a crash between them can
// never record a message as handled without its effect (or the reverse).
func (s *PostgresStore) ConfirmOrder(ctx context.Context, messageID string, orderID int64) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)", messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", model.OrderStatusConfirmed, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO processed_messages (message_id, processed_at) VALUES ($1, $2)", messageID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record processed message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
