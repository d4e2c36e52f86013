package httpadapter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/application"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	httptransport "jokemoderation/contexts/moderation/moderate-jokes-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) httptransport.Envelope {
	return h.respond(ctx, "login", h.Service.Authenticate(ctx, strings.TrimSpace(req.Email), req.Password))
}

// AuthorizeHandler resolves the moderator behind a bearer token.
func (h Handler) AuthorizeHandler(ctx context.Context, token string) (string, error) {
	return h.Service.ResolveModerator(ctx, token)
}

func (h Handler) ListPendingHandler(ctx context.Context) httptransport.Envelope {
	return h.respond(ctx, "list_pending", h.Service.ListPendingForReview(ctx))
}

func (h Handler) UpdateJokeHandler(ctx context.Context, jokeID string, req httptransport.UpdateJokeRequest) httptransport.Envelope {
	return h.respond(ctx, "edit", h.Service.Edit(ctx, jokeID, entities.JokePatch{
		Setup:     req.Setup,
		Punchline: req.Punchline,
		Category:  req.Type,
		Author:    req.Author,
	}))
}

func (h Handler) ApproveHandler(ctx context.Context, jokeID string) httptransport.Envelope {
	return h.respond(ctx, "approve", h.Service.Approve(ctx, jokeID))
}

func (h Handler) RejectHandler(ctx context.Context, jokeID string) httptransport.Envelope {
	return h.respond(ctx, "reject", h.Service.Reject(ctx, jokeID))
}

func (h Handler) ListDeliveriesHandler(ctx context.Context, statusRaw string, limitRaw string) httptransport.Envelope {
	limit := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil {
		limit = parsed
	}
	return h.respond(ctx, "list_deliveries", h.Service.ListDeliveryIntents(ctx, statusRaw, limit))
}

// respond records the outcome of an operation and maps it to the wire
// envelope. Failures log at warn, successes at debug.
func (h Handler) respond(ctx context.Context, operation string, outcome application.Outcome) httptransport.Envelope {
	level := slog.LevelDebug
	if outcome.Code >= 400 {
		level = slog.LevelWarn
	}
	application.ResolveLogger(h.Logger).Log(ctx, level, "moderation request handled",
		"event", "moderation_http_outcome",
		"module", "moderation/moderate-jokes-service",
		"layer", "adapter",
		"operation", operation,
		"code", outcome.Code,
		"message", outcome.Message,
	)
	return mapOutcome(outcome)
}

func mapOutcome(outcome application.Outcome) httptransport.Envelope {
	return httptransport.Envelope{
		Code:    outcome.Code,
		Message: outcome.Message,
		Data:    mapData(outcome.Data),
		Error:   outcome.Error,
	}
}

func mapData(data any) any {
	switch value := data.(type) {
	case nil:
		return nil
	case application.LoginResult:
		return httptransport.LoginData{Token: value.Token}
	case entities.PendingJoke:
		return mapJoke(value)
	case []entities.PendingJoke:
		items := make([]httptransport.JokeResponse, 0, len(value))
		for _, joke := range value {
			items = append(items, mapJoke(joke))
		}
		return items
	case entities.DeliveredJoke:
		return mapDelivered(value)
	case []entities.DeliveryIntent:
		items := make([]httptransport.DeliveryIntentResponse, 0, len(value))
		for _, intent := range value {
			items = append(items, httptransport.DeliveryIntentResponse{
				IntentID:      intent.IntentID,
				JokeID:        intent.JokeID,
				Status:        string(intent.Status),
				Attempts:      intent.Attempts,
				LastError:     intent.LastError,
				NextAttemptAt: formatTime(intent.NextAttemptAt),
				CreatedAt:     formatTime(intent.CreatedAt),
				UpdatedAt:     formatTime(intent.UpdatedAt),
				Payload:       mapDelivered(intent.Payload),
			})
		}
		return items
	default:
		return value
	}
}

func mapJoke(joke entities.PendingJoke) httptransport.JokeResponse {
	return httptransport.JokeResponse{
		ID:        joke.JokeID,
		Setup:     joke.Setup,
		Punchline: joke.Punchline,
		Type: httptransport.CategoryResponse{
			ID:   joke.Category.ID,
			Name: joke.Category.DisplayName(),
		},
		Author:    joke.Author,
		Status:    string(joke.Status),
		CreatedAt: formatTime(joke.CreatedAt),
		UpdatedAt: formatTime(joke.UpdatedAt),
	}
}

func mapDelivered(joke entities.DeliveredJoke) httptransport.DeliveredJokeResponse {
	return httptransport.DeliveredJokeResponse{
		ID:        joke.JokeID,
		Setup:     joke.Setup,
		Punchline: joke.Punchline,
		Type:      joke.Type,
		Author:    joke.Author,
		CreatedAt: formatTime(joke.CreatedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
