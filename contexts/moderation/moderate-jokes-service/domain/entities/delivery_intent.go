package entities

import "time"

type DeliveryIntentStatus string

const (
	DeliveryIntentPending   DeliveryIntentStatus = "pending_delivery"
	DeliveryIntentDelivered DeliveryIntentStatus = "delivered"
	DeliveryIntentAbandoned DeliveryIntentStatus = "abandoned"
)

func ParseDeliveryIntentStatus(raw string) (DeliveryIntentStatus, bool) {
	switch DeliveryIntentStatus(raw) {
	case DeliveryIntentPending, DeliveryIntentDelivered, DeliveryIntentAbandoned:
		return DeliveryIntentStatus(raw), true
	default:
		return "", false
	}
}

// DeliveryIntent marks a joke that was approved upstream but has not yet
// reached the delivery store.
type DeliveryIntent struct {
	IntentID      string
	JokeID        string
	Payload       DeliveredJoke
	Status        DeliveryIntentStatus
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPendingDelivery records the first failed delivery attempt. The intent is
// due immediately so an event-triggered reconcile pass can pick it up.
func NewPendingDelivery(intentID string, jokeID string, payload DeliveredJoke, cause string, now time.Time) DeliveryIntent {
	return DeliveryIntent{
		IntentID:      intentID,
		JokeID:        jokeID,
		Payload:       payload,
		Status:        DeliveryIntentPending,
		Attempts:      1,
		LastError:     cause,
		NextAttemptAt: now.UTC(),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

func (i DeliveryIntent) IsDue(now time.Time) bool {
	return i.Status == DeliveryIntentPending && !now.Before(i.NextAttemptAt)
}
