package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/memory"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
	"jokemoderation/internal/shared/events"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

type scriptedDeliveries struct {
	store *memory.Store
	errs  []error
	calls int
}

func (d *scriptedDeliveries) Publish(ctx context.Context, joke entities.DeliveredJoke) (entities.DeliveredJoke, error) {
	d.calls++
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return entities.DeliveredJoke{}, err
		}
	}
	return d.store.Publish(ctx, joke)
}

type topicRecorder struct {
	topics []string
}

func (p *topicRecorder) Publish(_ context.Context, topic string, _ events.Envelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

type capturingSubscriber struct {
	topic   string
	group   string
	handler func(context.Context, ports.EventEnvelope) error
}

func (s *capturingSubscriber) Subscribe(_ context.Context, topic string, group string, handler func(context.Context, ports.EventEnvelope) error) error {
	s.topic = topic
	s.group = group
	s.handler = handler
	return nil
}

func newReconcilerFixture(t *testing.T, errs ...error) (DeliveryReconciler, *memory.Store, *scriptedDeliveries, *stepClock, *topicRecorder) {
	t.Helper()
	store := memory.NewStore(nil, nil, nil)
	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	deliveries := &scriptedDeliveries{store: store, errs: errs}
	publisher := &topicRecorder{}

	payload := entities.DeliveredJoke{Setup: "setup", Punchline: "punchline", Type: "pun", Author: "ada"}
	if _, err := store.SavePendingDelivery(context.Background(),
		entities.NewPendingDelivery("intent-1", "joke-1", payload, "delivery store unavailable", clock.now),
	); err != nil {
		t.Fatalf("seed intent: %v", err)
	}

	reconciler := DeliveryReconciler{
		Intents:      store,
		Deliveries:   deliveries,
		Publisher:    publisher,
		Clock:        clock,
		IDGenerator:  store,
		MaxAttempts:  4,
		RetryBackoff: 30 * time.Second,
	}
	return reconciler, store, deliveries, clock, publisher
}

func onlyIntent(t *testing.T, store *memory.Store) entities.DeliveryIntent {
	t.Helper()
	items, err := store.ListDeliveryIntents(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("list intents: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one intent, got %d", len(items))
	}
	return items[0]
}

func TestRunOnceDeliversPendingIntent(t *testing.T) {
	reconciler, store, deliveries, _, publisher := newReconcilerFixture(t)

	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	intent := onlyIntent(t, store)
	if intent.Status != entities.DeliveryIntentDelivered || intent.Attempts != 2 || intent.LastError != "" {
		t.Fatalf("unexpected intent after retry: %+v", intent)
	}
	delivered := store.Delivered()
	if deliveries.calls != 1 || len(delivered) != 1 || delivered[0].Type != "pun" {
		t.Fatalf("expected one delivered joke, calls=%d delivered=%+v", deliveries.calls, delivered)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != events.TopicJokeDelivered {
		t.Fatalf("expected delivered event, got %v", publisher.topics)
	}
}

func TestRunOnceTransientFailureBacksOff(t *testing.T) {
	reconciler, store, deliveries, clock, _ := newReconcilerFixture(t, domainerrors.ErrDeliveryUnavailable)

	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	intent := onlyIntent(t, store)
	if intent.Status != entities.DeliveryIntentPending || intent.Attempts != 2 {
		t.Fatalf("unexpected intent after failure: %+v", intent)
	}
	if want := clock.now.Add(time.Minute); !intent.NextAttemptAt.Equal(want) {
		t.Fatalf("expected next attempt at %s, got %s", want, intent.NextAttemptAt)
	}

	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if deliveries.calls != 1 {
		t.Fatalf("intent retried before its backoff elapsed")
	}

	clock.now = clock.now.Add(time.Minute)
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if intent := onlyIntent(t, store); intent.Status != entities.DeliveryIntentDelivered || deliveries.calls != 2 {
		t.Fatalf("expected delivery after backoff, intent=%+v calls=%d", intent, deliveries.calls)
	}
}

func TestRunOnceAbandonsRejectedDelivery(t *testing.T) {
	reconciler, store, _, _, publisher := newReconcilerFixture(t, domainerrors.ErrDeliveryRejected)

	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	intent := onlyIntent(t, store)
	if intent.Status != entities.DeliveryIntentAbandoned || intent.LastError == "" {
		t.Fatalf("expected abandoned intent, got %+v", intent)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("abandoned intent must not publish events, got %v", publisher.topics)
	}
}

func TestRunOnceAbandonsAfterMaxAttempts(t *testing.T) {
	reconciler, store, _, clock, _ := newReconcilerFixture(t,
		domainerrors.ErrDeliveryUnavailable,
		domainerrors.ErrDeliveryUnavailable,
		domainerrors.ErrDeliveryUnavailable,
	)
	reconciler.MaxAttempts = 3

	for i := 0; i < 3; i++ {
		if err := reconciler.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		clock.now = clock.now.Add(time.Hour)
	}
	intent := onlyIntent(t, store)
	if intent.Status != entities.DeliveryIntentAbandoned || intent.Attempts != 3 {
		t.Fatalf("expected abandoned after 3 attempts, got %+v", intent)
	}
}

type failingIntents struct {
	*memory.Store
}

func (f failingIntents) UpdateDeliveryIntent(context.Context, entities.DeliveryIntent) error {
	return errors.New("database unavailable")
}

func TestRunOnceReturnsPersistenceFailure(t *testing.T) {
	reconciler, store, _, _, _ := newReconcilerFixture(t)
	reconciler.Intents = failingIntents{Store: store}

	if err := reconciler.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected update failure to surface")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	reconciler := DeliveryReconciler{RetryBackoff: 30 * time.Second}
	if got := reconciler.backoff(1); got != 30*time.Second {
		t.Fatalf("expected base backoff, got %s", got)
	}
	if got := reconciler.backoff(3); got != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", got)
	}
	if got := reconciler.backoff(40); got != time.Hour {
		t.Fatalf("expected cap at 1h, got %s", got)
	}
}

func TestStartRetriesOnDeliveryFailedEvent(t *testing.T) {
	reconciler, store, _, _, _ := newReconcilerFixture(t)
	subscriber := &capturingSubscriber{}
	reconciler.Subscriber = subscriber

	if err := reconciler.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if subscriber.topic != events.TopicDeliveryFailed || subscriber.group == "" {
		t.Fatalf("unexpected subscription topic=%q group=%q", subscriber.topic, subscriber.group)
	}
	if err := subscriber.handler(context.Background(), ports.EventEnvelope{EventID: "evt-1", EntityID: "joke-1"}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if intent := onlyIntent(t, store); intent.Status != entities.DeliveryIntentDelivered {
		t.Fatalf("expected event-triggered delivery, got %+v", intent)
	}
}
