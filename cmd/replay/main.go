// Demonstrates that duplicate delivery of an OrderCreated event has no
// second effect: the consumer applies the first copy and skips the replay.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"user-order-services/internal/config"
	"user-order-services/internal/consumer"
	"user-order-services/internal/db"
	"user-order-services/internal/orderservice"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := consumer.NewOrderConsumer(consumer.NewPostgresStore(pool))

	// A fixed message id stands in for a broker redelivery. Point order_id at
	// a row from a previous run if you want to watch the status flip.
	msgID := "550e8400-e29b-41d4-a716-446655449999"
	payload, err := json.Marshal(orderservice.OrderCreatedEvent{
		EventType: orderservice.EventTypeOrderCreated,
		OrderID:   123,
		UserID:    1,
		Product:   "Book",
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Fatalf("Failed to marshal payload: %v", err)
	}

	log.Println("1st Attempt:")
	if err := svc.HandleMessage(ctx, msgID, payload); err != nil {
		log.Fatalf("First attempt failed: %v", err)
	}

	log.Println("2nd Attempt (Should be skipped):")
	if err := svc.HandleMessage(ctx, msgID, payload); err != nil {
		log.Fatalf("Second attempt failed: %v", err)
	}

	log.Println("Done")
}
