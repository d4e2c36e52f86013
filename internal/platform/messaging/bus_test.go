package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"jokemoderation/internal/shared/events"
)

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := bus.Subscribe(ctx, events.TopicJokeDelivered, "test", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(context.Background(), events.TopicJokeRejected, events.Envelope{EventID: "other"}); err != nil {
		t.Fatalf("publish other topic: %v", err)
	}
	if err := bus.Publish(context.Background(), events.TopicJokeDelivered, events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestBusKeepsConsumingAfterHandlerError(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 2)
	_ = bus.Subscribe(ctx, events.TopicDeliveryFailed, "test", func(_ context.Context, event events.Envelope) error {
		calls <- event.EventID
		return errors.New("handler failed")
	})

	_ = bus.Publish(context.Background(), events.TopicDeliveryFailed, events.Envelope{EventID: "a"})
	_ = bus.Publish(context.Background(), events.TopicDeliveryFailed, events.Envelope{EventID: "b"})

	for _, want := range []string{"a", "b"} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %s not delivered", want)
		}
	}
}

func TestBusUnsubscribesOnCancel(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	_ = bus.Subscribe(ctx, events.TopicJokeRejected, "test", func(context.Context, events.Envelope) error { return nil })
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		remaining := len(bus.subscribers[events.TopicJokeRejected])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscriber not removed after cancel")
}
