package submitclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
	"jokemoderation/internal/platform/httpclient"
)

// Client talks to the submission store's joke collection, e.g.
// http://submit-jokes/api/jokes.
type Client struct {
	http httpclient.Client
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) Client {
	return Client{http: httpclient.New(baseURL, timeout, "submit", logger)}
}

// categoryRef accepts either a bare category name or a populated reference
// object.
type categoryRef struct {
	ID   string
	Name string
}

func (c *categoryRef) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &c.Name)
	}
	var ref struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return err
	}
	c.ID = ref.ID
	if c.ID == "" {
		c.ID = ref.MongoID
	}
	c.Name = ref.Name
	return nil
}

type jokeDTO struct {
	ID        string      `json:"id"`
	MongoID   string      `json:"_id"`
	Setup     string      `json:"setup"`
	Punchline string      `json:"punchline"`
	Type      categoryRef `json:"type"`
	Author    string      `json:"author"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// empty reports a body with neither an id nor any joke text, as produced by
// a store answering null, {} or {"data":null}.
func (d jokeDTO) empty() bool {
	return d.ID == "" && d.MongoID == "" && d.Setup == "" && d.Punchline == ""
}

func (d jokeDTO) toEntity() entities.PendingJoke {
	id := d.ID
	if id == "" {
		id = d.MongoID
	}
	status := entities.JokeStatus(strings.ToLower(strings.TrimSpace(d.Status)))
	return entities.PendingJoke{
		JokeID:    id,
		Setup:     d.Setup,
		Punchline: d.Punchline,
		Category:  entities.Category{ID: d.Type.ID, Name: d.Type.Name},
		Author:    d.Author,
		Status:    status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type patchDTO struct {
	Setup     *string `json:"setup,omitempty"`
	Punchline *string `json:"punchline,omitempty"`
	Type      *string `json:"type,omitempty"`
	Author    *string `json:"author,omitempty"`
	Status    *string `json:"status,omitempty"`
}

func (c Client) ListPending(ctx context.Context) ([]entities.PendingJoke, error) {
	var items []jokeDTO
	err := c.http.DoJSON(ctx, http.MethodGet, "", url.Values{"status": {string(entities.JokeStatusPending)}}, nil, &items)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]entities.PendingJoke, 0, len(items))
	for _, item := range items {
		if item.empty() {
			continue
		}
		joke := item.toEntity()
		// Listed under ?status=pending, so a missing status means pending.
		if joke.Status == "" {
			joke.Status = entities.JokeStatusPending
		}
		if !joke.IsPending() {
			continue
		}
		out = append(out, joke)
	}
	return out, nil
}

func (c Client) GetJoke(ctx context.Context, jokeID string) (entities.PendingJoke, error) {
	var item jokeDTO
	if err := c.http.DoJSON(ctx, http.MethodGet, jokePath(jokeID), nil, nil, &item); err != nil {
		return entities.PendingJoke{}, mapError(err)
	}
	if item.empty() {
		return entities.PendingJoke{}, fmt.Errorf("%w: empty response for %s", domainerrors.ErrJokeNotFound, jokeID)
	}
	return withID(item.toEntity(), jokeID), nil
}

func (c Client) UpdateJoke(ctx context.Context, jokeID string, patch entities.JokePatch) (entities.PendingJoke, error) {
	var item jokeDTO
	body := patchDTO{
		Setup:     patch.Setup,
		Punchline: patch.Punchline,
		Type:      patch.Category,
		Author:    patch.Author,
	}
	if err := c.http.DoJSON(ctx, http.MethodPut, jokePath(jokeID), nil, body, &item); err != nil {
		return entities.PendingJoke{}, mapError(err)
	}
	if item.empty() {
		return entities.PendingJoke{}, fmt.Errorf("%w: empty response for %s", domainerrors.ErrJokeNotFound, jokeID)
	}
	return withID(item.toEntity(), jokeID), nil
}

// MarkApproved checks the joke is explicitly pending, then flips its status. The
// check narrows but does not close the window for a concurrent approval in
// another process; a 409 from the store covers the rest.
func (c Client) MarkApproved(ctx context.Context, jokeID string) (entities.PendingJoke, error) {
	current, err := c.GetJoke(ctx, jokeID)
	if err != nil {
		return entities.PendingJoke{}, err
	}
	if !current.IsPending() {
		return entities.PendingJoke{}, fmt.Errorf("%w: status %q", domainerrors.ErrJokeNotPending, current.Status)
	}

	approved := string(entities.JokeStatusApproved)
	var item jokeDTO
	if err := c.http.DoJSON(ctx, http.MethodPut, jokePath(jokeID), nil, patchDTO{Status: &approved}, &item); err != nil {
		return entities.PendingJoke{}, mapError(err)
	}
	if item.empty() {
		current.Status = entities.JokeStatusApproved
		return current, nil
	}
	joke := withID(item.toEntity(), jokeID)
	joke.Status = entities.JokeStatusApproved
	return joke, nil
}

func (c Client) MarkRejected(ctx context.Context, jokeID string) error {
	if err := c.http.DoJSON(ctx, http.MethodDelete, jokePath(jokeID), nil, nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func jokePath(jokeID string) string {
	return "/" + url.PathEscape(jokeID)
}

func withID(joke entities.PendingJoke, jokeID string) entities.PendingJoke {
	if joke.JokeID == "" {
		joke.JokeID = jokeID
	}
	return joke
}

func mapError(err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domainerrors.ErrJokeNotFound, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", domainerrors.ErrJokeNotPending, err)
	default:
		return fmt.Errorf("%w: %w", domainerrors.ErrUpstreamUnavailable, err)
	}
}

var _ ports.SubmissionStore = Client{}
