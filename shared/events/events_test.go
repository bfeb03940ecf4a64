package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
	block  chan struct{}
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func sampleEvent() WorkOrderEvent {
	return WorkOrderEvent{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		WorkOrderID: uuid.New(),
		ActorID:     uuid.New(),
		Transition:  "start",
		FromStatus:  "assigned",
		ToStatus:    "in_progress",
		OccurredAt:  time.Now().UTC(),
	}
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, ProducerConfig{QueueSize: 10, WorkerCount: 2})

	event := sampleEvent()
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !w.closed {
		t.Fatal("writer not closed")
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != Topic || string(msg.Key) != event.TenantID.String() {
		t.Fatalf("message routed to %s with key %s", msg.Topic, msg.Key)
	}
	var decoded WorkOrderEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil || decoded.ID != event.ID {
		t.Fatalf("payload = %s, %v", msg.Value, err)
	}

	if err := p.Publish(context.Background(), event); err == nil {
		t.Fatal("publish after close should fail")
	}
}

func TestProducerDropsWhenQueueFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	p := newProducer(w, ProducerConfig{QueueSize: 1, WorkerCount: 1})

	// first event is picked up by the blocked worker, second fills the queue
	_ = p.Publish(context.Background(), sampleEvent())
	deadline := time.Now().Add(time.Second)
	for len(p.events) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := p.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if err := p.Publish(context.Background(), sampleEvent()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("got %v, want ErrQueueFull", err)
	}

	close(w.block)
	_ = p.Close()
	if len(w.msgs) != 2 {
		t.Fatalf("wrote %d messages, want 2", len(w.msgs))
	}
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumerHandlesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	event := sampleEvent()
	payload, _ := json.Marshal(event)
	reader := &fakeReader{
		queue: []kafka.Message{
			{Offset: 1, Value: []byte("not json")},
			{Offset: 2, Value: payload},
		},
		cancel: cancel,
	}
	c := &Consumer{reader: reader, retries: 1, backoff: time.Millisecond}

	var handled []uuid.UUID
	err := c.Run(ctx, func(_ context.Context, e WorkOrderEvent) error {
		handled = append(handled, e.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(handled) != 1 || handled[0] != event.ID {
		t.Fatalf("handled %v", handled)
	}
	if len(reader.committed) != 2 {
		t.Fatalf("committed %v, want both offsets", reader.committed)
	}
}

func TestConsumerRetriesHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload, _ := json.Marshal(sampleEvent())
	reader := &fakeReader{queue: []kafka.Message{{Offset: 7, Value: payload}}, cancel: cancel}
	c := &Consumer{reader: reader, retries: 2, backoff: time.Millisecond}

	attempts := 0
	err := c.Run(ctx, func(context.Context, WorkOrderEvent) error {
		attempts++
		if attempts < 2 {
			return errors.New("db busy")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}
