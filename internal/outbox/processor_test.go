package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"user-order-services/internal/model"
)

type fakeSource struct {
	mu     sync.Mutex
	events []model.OutboxEvent
}

func (s *fakeSource) PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.events)
	if n > limit {
		n = limit
	}
	out := make([]model.OutboxEvent, n)
	copy(out, s.events[:n])
	return out, nil
}

func (s *fakeSource) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeSource) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
	topics    []string
	fail      bool
}

func (p *recordingPublisher) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, id)
	p.topics = append(p.topics, topic)
	return nil
}

func event(id string) model.OutboxEvent {
	return model.OutboxEvent{
		ID:      id,
		Payload: []byte(`{"event_type":"OrderCreated","order_id":1}`),
		Status:  "PENDING",
	}
}

func TestProcessBatchPublishesAndDeletes(t *testing.T) {
	source := &fakeSource{events: []model.OutboxEvent{event("e-1"), event("e-2")}}
	pub := &recordingPublisher{}
	p := NewProcessor(source, pub)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch failed: %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.published))
	}
	if pub.topics[0] != "OrderCreated" {
		t.Errorf("expected topic OrderCreated, got %s", pub.topics[0])
	}
	if source.remaining() != 0 {
		t.Errorf("expected outbox drained, %d rows left", source.remaining())
	}
}

func TestPublishFailureLeavesRowPending(t *testing.T) {
	source := &fakeSource{events: []model.OutboxEvent{event("e-1")}}
	pub := &recordingPublisher{fail: true}
	p := NewProcessor(source, pub)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch failed: %v", err)
	}
	if source.remaining() != 1 {
		t.Fatal("a failed publish must leave the row for the next tick")
	}

	// Broker back up: the same row goes out on the retry tick.
	pub.fail = false
	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch failed: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != "e-1" {
		t.Errorf("expected e-1 republished, got %v", pub.published)
	}
	if source.remaining() != 0 {
		t.Error("expected outbox drained after retry")
	}
}

func TestInvalidPayloadSkipped(t *testing.T) {
	source := &fakeSource{events: []model.OutboxEvent{{ID: "bad", Payload: []byte("{not json")}}}
	pub := &recordingPublisher{}
	p := NewProcessor(source, pub)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch failed: %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("malformed payloads must not be published")
	}
}
