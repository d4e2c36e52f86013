package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestDeliveryIntentModelKeepsPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	intent := entities.NewPendingDelivery("intent-1", "joke-1", entities.DeliveredJoke{
		Setup:     "s",
		Punchline: "p",
		Type:      "pun",
		Author:    "a",
	}, "delivery store unavailable", now)

	row, err := deliveryIntentModelFromEntity(intent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := row.toEntity()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Payload != intent.Payload || got.Status != entities.DeliveryIntentPending || got.Attempts != 1 {
		t.Fatalf("unexpected intent: %+v", got)
	}
	if !got.NextAttemptAt.Equal(now) {
		t.Fatalf("expected next attempt %v, got %v", now, got.NextAttemptAt)
	}
}

func TestDeliveryIntentModelRejectsCorruptPayload(t *testing.T) {
	row := deliveryIntentModel{IntentID: "intent-1", Payload: []byte("{not json")}
	if _, err := row.toEntity(); err == nil {
		t.Fatalf("expected decode error")
	}
}
