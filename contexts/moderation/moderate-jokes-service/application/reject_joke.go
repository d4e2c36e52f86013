package application

import (
	"context"
	"net/http"
	"strings"

	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/internal/shared/events"
)

func (s Service) Reject(ctx context.Context, jokeID string) (outcome Outcome) {
	defer s.guard("reject", MessageRejectError, &outcome)
	logger := ResolveLogger(s.Logger)

	jokeID = strings.TrimSpace(jokeID)
	if jokeID == "" {
		return failure(http.StatusBadRequest, MessageInvalidJokeID, domainerrors.ErrInvalidRequest)
	}

	callCtx, cancel := s.outboundContext(ctx)
	defer cancel()

	if err := s.Submissions.MarkRejected(callCtx, jokeID); err != nil {
		logger.Error("joke rejection failed",
			"event", "moderation_reject_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessageRejectError, err)
	}

	logger.Info("joke rejected",
		"event", "moderation_joke_rejected",
		"module", moduleName,
		"layer", "application",
		"joke_id", jokeID,
	)
	s.publishEvent(ctx, events.TopicJokeRejected, "joke.rejected", jokeID, map[string]string{
		"joke_id": jokeID,
	})
	return success(http.StatusOK, MessageRejectSucceeded, nil)
}
