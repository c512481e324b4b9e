// Package outbox drains pending outbox events and hands them to a message
// publisher. Delivery is at-least-once: rows are deleted only after a
// successful publish, and anything left over is retried on the next tick.
package outbox

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"user-order-services/internal/model"
)

type Publisher interface {
	Publish(ctx context.Context, id string, topic string, payload []byte) error
}

// Source is the slice of the order store the processor needs.
type Source interface {
	PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

type Processor struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewProcessor(source Source, pub Publisher) *Processor {
	return &Processor{
		source:    source,
		publisher: pub,
		interval:  1 * time.Second,
		batchSize: 10,
	}
}

func (p *Processor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				log.Printf("[Processor] Failed to fetch events: %v", err)
			}
		}
	}
}

// ProcessBatch publishes one batch of pending events. Exported so tests and
// the replay tooling can drive the processor without the ticker.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	events, err := p.source.PendingEvents(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	log.Printf("[Processor] Processing batch of %d events", len(events))
	for _, event := range events {
		p.processEvent(ctx, event)
	}
	return nil
}

func (p *Processor) processEvent(ctx context.Context, event model.OutboxEvent) {
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(event.Payload, &payloadMap); err != nil {
		log.Printf("[Processor] Invalid payload for event %s: %v", event.ID, err)
		return
	}
	eventType, _ := payloadMap["event_type"].(string)

	if err := p.publisher.Publish(ctx, event.ID, eventType, event.Payload); err != nil {
		// Row stays pending and is republished next tick.
		log.Printf("[Processor] Failed to publish event %s: %v", event.ID, err)
		return
	}

	if err := p.source.DeleteEvent(ctx, event.ID); err != nil {
		// At-least-once: the consumer's dedup absorbs the republish.
		log.Printf("[Processor] Failed to delete event %s: %v", event.ID, err)
		return
	}
	log.Printf("[Processor] Successfully processed and deleted event %s", event.ID)
}
