// Fires concurrent order creations at a running order service. The first
// step creates a user through the rpc transport, so all requests share one
// client connection and exercise correlation multiplexing.
package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"user-order-services/internal/config"
	"user-order-services/internal/rpc"
	"user-order-services/internal/userservice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Unable to load config: %v\n", err)
		return
	}

	users := userservice.NewClient(rpc.NewClient(cfg.UserService.Addr))
	defer users.Close()

	u, err := users.CreateUser(context.Background(), "Stress Tester", "stress@example.com")
	if err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		return
	}
	fmt.Printf("Created user %d\n", u.ID)

	start := time.Now()
	var wg sync.WaitGroup
	var failures int32

	totalRequests := 50
	fmt.Printf("Starting stress test with %d requests...\n", totalRequests)

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			jsonBody := []byte(fmt.Sprintf(`{"user_id": %d, "product": "product-%d"}`, u.ID, id))
			resp, err := http.Post("http://localhost"+cfg.OrderService.HTTPAddr+"/orders", "application/json", bytes.NewBuffer(jsonBody))
			if err != nil {
				fmt.Printf("Request %d failed: %v\n", id, err)
				atomic.AddInt32(&failures, 1)
				return
			}
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt32(&failures, 1)
			}
			resp.Body.Close()
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	fmt.Printf("Finished %d requests in %v (%d failed)\n", totalRequests, duration, failures)
}
