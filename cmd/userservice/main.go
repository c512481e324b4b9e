package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"user-order-services/internal/config"
	"user-order-services/internal/db"
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

	// 2. Initialize Service
	store := userservice.NewPostgresStore(pool)
	svc := userservice.NewService(store)

	// 3. Start RPC Server
	srv := rpc.NewServer()
	svc.Register(srv)
	if err := srv.Listen(cfg.UserService.Addr); err != nil {
		log.Fatalf("Unable to listen on %s: %v", cfg.UserService.Addr, err)
	}
	defer srv.Close()
	log.Printf("[UserService] Listening on %s", srv.Addr())

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("[UserService] Shutting down...")
}
