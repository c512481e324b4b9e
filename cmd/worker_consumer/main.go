package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"user-order-services/internal/config"
	"user-order-services/internal/consumer"
	"user-order-services/internal/db"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}

	// 1. Initialize DB
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	// 2. Initialize Consumer Logic
	orderConsumer := consumer.NewOrderConsumer(consumer.NewPostgresStore(pool))

	// 3. Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Failed to open a channel: %v", err)
	}
	defer ch.Close()

	msgs, err := ch.Consume(
		cfg.RabbitMQ.Queue, // queue
		"",                 // consumer
		false,              // auto-ack (IMPORTANT: we want manual ack)
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		log.Fatalf("Failed to register a consumer: %v", err)
	}

	// 4. Handle Messages
	go func() {
		for d := range msgs {
			log.Printf("[Worker-Consumer] Received message: %s", d.MessageId)

			err := orderConsumer.HandleMessage(ctx, d.MessageId, d.Body)
			if err != nil {
				log.Printf("[Worker-Consumer] Failed to process message: %v", err)
				// Nack and requeue
				d.Nack(false, true)
				continue
			}

			d.Ack(false)
		}
	}()

	log.Println("[Worker-Consumer] Waiting for messages. To exit press CTRL+C")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("[Worker-Consumer] Shutting down...")
}
