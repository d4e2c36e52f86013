package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "jokemoderation/contexts/moderation/moderate-jokes-service/application"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
	"jokemoderation/internal/shared/events"
)

const (
	workerModule        = "moderation/moderate-jokes-service"
	defaultBatchSize    = 50
	defaultMaxAttempts  = 8
	defaultRetryBackoff = 30 * time.Second
	maxRetryBackoff     = time.Hour
	defaultCallTimeout  = 10 * time.Second
)

// DeliveryReconciler retries jokes that were approved upstream but never
// reached the delivery store. Transient failures back off exponentially;
// permanent rejections and exhausted intents are abandoned and logged at error
// level for operator follow-up.
type DeliveryReconciler struct {
	Intents       ports.DeliveryIntentRepository
	Deliveries    ports.DeliveryStore
	Publisher     ports.EventPublisher
	Subscriber    ports.EventSubscriber
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	CallTimeout   time.Duration
	ConsumerGroup string
	Logger        *slog.Logger
}

// Start subscribes to delivery failures so a fresh intent is retried right
// away instead of waiting for the next poll.
func (r DeliveryReconciler) Start(ctx context.Context) error {
	if r.Subscriber == nil {
		return nil
	}
	group := r.ConsumerGroup
	if group == "" {
		group = "moderate-jokes-delivery-reconciler"
	}
	return r.Subscriber.Subscribe(ctx, events.TopicDeliveryFailed, group, func(ctx context.Context, event ports.EventEnvelope) error {
		application.ResolveLogger(r.Logger).Debug("delivery failure received",
			"event", "moderation_reconcile_triggered",
			"module", workerModule,
			"layer", "worker",
			"event_id", event.EventID,
			"joke_id", event.EntityID,
		)
		return r.RunOnce(ctx)
	})
}

func (r DeliveryReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	now := r.now()

	due, err := r.Intents.ListDueDeliveryIntents(ctx, now, r.batchSize())
	if err != nil {
		logger.Error("list due delivery intents failed",
			"event", "moderation_reconcile_list_failed",
			"module", workerModule,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	delivered := 0
	for _, intent := range due {
		ok, err := r.retry(ctx, intent)
		if err != nil {
			return err
		}
		if ok {
			delivered++
		}
	}

	if len(due) > 0 {
		logger.Info("delivery reconcile cycle completed",
			"event", "moderation_reconcile_completed",
			"module", workerModule,
			"layer", "worker",
			"due_count", len(due),
			"delivered_count", delivered,
		)
	}
	return nil
}

// retry makes one delivery attempt. The returned error is reserved for
// persistence failures; delivery failures are recorded on the intent.
func (r DeliveryReconciler) retry(ctx context.Context, intent entities.DeliveryIntent) (bool, error) {
	logger := application.ResolveLogger(r.Logger)

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout())
	created, publishErr := r.Deliveries.Publish(callCtx, intent.Payload)
	cancel()

	now := r.now()
	intent.Attempts++
	intent.UpdatedAt = now

	if publishErr == nil {
		intent.Status = entities.DeliveryIntentDelivered
		intent.LastError = ""
		if err := r.Intents.UpdateDeliveryIntent(ctx, intent); err != nil {
			logger.Error("delivery intent mark delivered failed",
				"event", "moderation_reconcile_update_failed",
				"module", workerModule,
				"layer", "worker",
				"intent_id", intent.IntentID,
				"joke_id", intent.JokeID,
				"error", err.Error(),
			)
			return true, err
		}
		logger.Info("joke delivered on retry",
			"event", "moderation_reconcile_delivered",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"joke_id", intent.JokeID,
			"delivered_id", created.JokeID,
			"attempts", intent.Attempts,
		)
		r.publishDelivered(ctx, intent, created)
		return true, nil
	}

	intent.LastError = publishErr.Error()
	switch {
	case errors.Is(publishErr, domainerrors.ErrDeliveryRejected):
		intent.Status = entities.DeliveryIntentAbandoned
		logger.Error("delivery store rejected joke; intent abandoned",
			"event", "moderation_reconcile_abandoned",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"joke_id", intent.JokeID,
			"attempts", intent.Attempts,
			"error", publishErr.Error(),
		)
	case intent.Attempts >= r.maxAttempts():
		intent.Status = entities.DeliveryIntentAbandoned
		logger.Error("delivery retries exhausted; intent abandoned",
			"event", "moderation_reconcile_abandoned",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"joke_id", intent.JokeID,
			"attempts", intent.Attempts,
			"error", publishErr.Error(),
		)
	default:
		intent.NextAttemptAt = now.Add(r.backoff(intent.Attempts))
		logger.Warn("delivery retry failed",
			"event", "moderation_reconcile_retry_failed",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"joke_id", intent.JokeID,
			"attempts", intent.Attempts,
			"next_attempt_at", intent.NextAttemptAt.Format(time.RFC3339),
			"error", publishErr.Error(),
		)
	}

	if err := r.Intents.UpdateDeliveryIntent(ctx, intent); err != nil {
		logger.Error("delivery intent update failed",
			"event", "moderation_reconcile_update_failed",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"error", err.Error(),
		)
		return false, err
	}
	return false, nil
}

func (r DeliveryReconciler) publishDelivered(ctx context.Context, intent entities.DeliveryIntent, created entities.DeliveredJoke) {
	if r.Publisher == nil {
		return
	}
	eventID := fmt.Sprintf("%s-delivered", intent.IntentID)
	if r.IDGenerator != nil {
		if id, err := r.IDGenerator.NewID(ctx); err == nil {
			eventID = id
		}
	}
	err := r.Publisher.Publish(ctx, events.TopicJokeDelivered, ports.EventEnvelope{
		EventID:        eventID,
		EventType:      "joke.delivered",
		SourceService:  "moderate-jokes-service",
		OccurredAtUTC:  r.now(),
		CorrelationID:  intent.IntentID,
		EntityType:     "joke",
		EntityID:       intent.JokeID,
		PayloadVersion: 1,
		Payload: map[string]string{
			"joke_id":      intent.JokeID,
			"delivered_id": created.JokeID,
			"intent_id":    intent.IntentID,
		},
	})
	if err != nil {
		application.ResolveLogger(r.Logger).Warn("delivered event publish failed",
			"event", "moderation_reconcile_publish_failed",
			"module", workerModule,
			"layer", "worker",
			"intent_id", intent.IntentID,
			"error", err.Error(),
		)
	}
}

// backoff doubles per attempt starting from RetryBackoff, capped at one hour.
func (r DeliveryReconciler) backoff(attempts int) time.Duration {
	base := r.RetryBackoff
	if base <= 0 {
		base = defaultRetryBackoff
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return delay
}

func (r DeliveryReconciler) batchSize() int {
	if r.BatchSize <= 0 {
		return defaultBatchSize
	}
	return r.BatchSize
}

func (r DeliveryReconciler) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return r.MaxAttempts
}

func (r DeliveryReconciler) callTimeout() time.Duration {
	if r.CallTimeout <= 0 {
		return defaultCallTimeout
	}
	return r.CallTimeout
}

func (r DeliveryReconciler) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
