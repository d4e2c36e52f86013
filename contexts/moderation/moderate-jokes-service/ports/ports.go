package ports

import (
	"context"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	"jokemoderation/internal/shared/events"
)

// Clock allows deterministic testing of token expiry and retry schedules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts intent/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// CredentialStore resolves moderator credentials by exact email match.
type CredentialStore interface {
	LookupCredential(ctx context.Context, email string) (entities.ModeratorCredential, bool, error)
}

// PasswordHasher compares a plaintext password against a stored salted hash.
// A mismatch is (false, nil); an error means the hashing subsystem failed.
type PasswordHasher interface {
	Compare(hash string, plaintext string) (bool, error)
}

// TokenIssuer mints and validates stateless bearer tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, subject string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
}

// SubmissionStore is the upstream store that owns pending jokes.
type SubmissionStore interface {
	ListPending(ctx context.Context) ([]entities.PendingJoke, error)
	GetJoke(ctx context.Context, jokeID string) (entities.PendingJoke, error)
	UpdateJoke(ctx context.Context, jokeID string, patch entities.JokePatch) (entities.PendingJoke, error)
	// MarkApproved is not guaranteed idempotent; implementations may refuse
	// jokes that are no longer pending.
	MarkApproved(ctx context.Context, jokeID string) (entities.PendingJoke, error)
	// MarkRejected must remove the joke from ListPending results.
	MarkRejected(ctx context.Context, jokeID string) error
}

// DeliveryStore is the downstream store that serves approved jokes.
type DeliveryStore interface {
	Publish(ctx context.Context, joke entities.DeliveredJoke) (entities.DeliveredJoke, error)
}

// DeliveryIntentRepository persists approved-but-undelivered markers.
type DeliveryIntentRepository interface {
	// SavePendingDelivery upserts by joke id so repeated failures on the same
	// joke keep a single pending marker.
	SavePendingDelivery(ctx context.Context, intent entities.DeliveryIntent) (entities.DeliveryIntent, error)
	UpdateDeliveryIntent(ctx context.Context, intent entities.DeliveryIntent) error
	ListDueDeliveryIntents(ctx context.Context, now time.Time, limit int) ([]entities.DeliveryIntent, error)
	ListDeliveryIntents(ctx context.Context, status entities.DeliveryIntentStatus, limit int) ([]entities.DeliveryIntent, error)
}

// ApprovalLocker serializes approvals of the same joke inside one process.
type ApprovalLocker interface {
	TryLock(jokeID string) (release func(), ok bool)
}

// EventEnvelope reuses the shared event envelope.
type EventEnvelope = events.Envelope

// EventPublisher publishes envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
