package deliverclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
)

func TestPublishPostsProjection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["setup"] != "s" || body["punchline"] != "p" || body["type"] != "pun" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"d1","setup":"s","punchline":"p","type":"pun"}`))
	}))
	defer server.Close()

	out, err := New(server.URL, time.Second, nil).Publish(context.Background(), entities.DeliveredJoke{
		Setup: "s", Punchline: "p", Type: "pun",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.JokeID != "d1" || out.Type != "pun" {
		t.Fatalf("unexpected delivered joke: %+v", out)
	}
}

func TestPublishClassifiesFailures(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domainerrors.ErrDeliveryRejected},
		{http.StatusUnprocessableEntity, domainerrors.ErrDeliveryRejected},
		{http.StatusTooManyRequests, domainerrors.ErrDeliveryUnavailable},
		{http.StatusServiceUnavailable, domainerrors.ErrDeliveryUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := New(server.URL, time.Second, nil).Publish(context.Background(), entities.DeliveredJoke{Setup: "s"})
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestPublishTransportFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := New(server.URL, time.Second, nil).Publish(context.Background(), entities.DeliveredJoke{Setup: "s"})
	if !errors.Is(err, domainerrors.ErrDeliveryUnavailable) {
		t.Fatalf("expected ErrDeliveryUnavailable, got %v", err)
	}
}
