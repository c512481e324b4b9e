package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"user-order-services/internal/apperr"
	"user-order-services/internal/config"
	"user-order-services/internal/db"
	"user-order-services/internal/orderservice"
	"user-order-services/internal/outbox"
	"user-order-services/internal/rpc"
	"user-order-services/internal/userservice"
)

func main() {
	ctx := context.Background()

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
	log.Println("Connected to PostgreSQL")

	// 2. Client for the user service (dials lazily, so order creation keeps
	// failing with a transport error instead of crashing when the user
	// service is down).
	users := userservice.NewClient(rpc.NewClient(cfg.UserService.Addr,
		rpc.WithDialTimeout(cfg.RPC.DialTimeout.Duration),
		rpc.WithRequestTimeout(cfg.RPC.RequestTimeout.Duration),
	))
	defer users.Close()

	// 3. Initialize Service
	store := orderservice.NewPostgresStore(pool)
	orderService := orderservice.NewService(store, users)

	// 4. Initialize & Start Outbox Processor
	publisher, err := outbox.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatalf("Unable to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	processor := outbox.NewProcessor(store, publisher)
	go processor.Start(ctx)

	// 5. RPC entry point
	srv := rpc.NewServer()
	orderService.Register(srv)
	if err := srv.Listen(cfg.OrderService.Addr); err != nil {
		log.Fatalf("Unable to listen on %s: %v", cfg.OrderService.Addr, err)
	}
	defer srv.Close()
	log.Printf("[OrderService] RPC listening on %s", srv.Addr())

	// 6. HTTP entry point
	http.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req orderservice.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		order, err := orderService.CreateOrder(r.Context(), req.UserID, req.Product)
		if err != nil {
			log.Printf("Failed to create order: %v\n", err)
			http.Error(w, err.Error(), statusFor(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(order)
	})

	log.Printf("[OrderService] HTTP listening on %s", cfg.OrderService.HTTPAddr)
	if err := http.ListenAndServe(cfg.OrderService.HTTPAddr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
