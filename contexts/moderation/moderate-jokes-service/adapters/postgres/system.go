package postgresadapter

import (
	"context"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"

	"github.com/google/uuid"
)

// SystemClock reads wall time in UTC; intent schedules are stored in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues v4 ids for delivery intents and events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
