package deliverclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
	"jokemoderation/internal/platform/httpclient"
)

// Client publishes approved jokes to the delivery store's collection.
type Client struct {
	http httpclient.Client
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) Client {
	return Client{http: httpclient.New(baseURL, timeout, "deliver", logger)}
}

type deliverRequest struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Type      string `json:"type"`
	Author    string `json:"author,omitempty"`
}

type deliveredDTO struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	Setup     string    `json:"setup"`
	Punchline string    `json:"punchline"`
	Type      string    `json:"type"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Client) Publish(ctx context.Context, joke entities.DeliveredJoke) (entities.DeliveredJoke, error) {
	var created deliveredDTO
	err := c.http.DoJSON(ctx, http.MethodPost, "", nil, deliverRequest{
		Setup:     joke.Setup,
		Punchline: joke.Punchline,
		Type:      joke.Type,
		Author:    joke.Author,
	}, &created)
	if err != nil {
		return entities.DeliveredJoke{}, mapError(err)
	}

	out := joke
	out.JokeID = created.ID
	if out.JokeID == "" {
		out.JokeID = created.MongoID
	}
	if created.Setup != "" {
		out.Setup = created.Setup
	}
	if created.Punchline != "" {
		out.Punchline = created.Punchline
	}
	if created.Type != "" {
		out.Type = created.Type
	}
	if created.Author != "" {
		out.Author = created.Author
	}
	out.CreatedAt = created.CreatedAt
	return out, nil
}

// mapError splits failures into retryable and permanent. Only a 4xx other
// than 429 is permanent.
func mapError(err error) error {
	code := httpclient.StatusCode(err)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", domainerrors.ErrDeliveryRejected, err)
	}
	return fmt.Errorf("%w: %w", domainerrors.ErrDeliveryUnavailable, err)
}

var _ ports.DeliveryStore = Client{}
