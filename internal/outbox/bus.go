package outbox

import (
	"context"
	"log"
)

// HandlerFunc is the receiving side of the in-memory bus, matching the
// consumer's HandleMessage signature.
type HandlerFunc func(ctx context.Context, messageID string, payload []byte) error

// InMemoryBus stands in for a real broker by delivering messages straight to
// a handler. Used in tests and single-process demo runs.
type InMemoryBus struct {
	handler HandlerFunc
}

func NewInMemoryBus(handler HandlerFunc) *InMemoryBus {
	return &InMemoryBus{handler: handler}
}

func (b *InMemoryBus) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	log.Printf("[Bus] Relaying message %s directly to consumer...", id)
	return b.handler(ctx, id, payload)
}
