package application

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
)

// Edit applies a sparse patch upstream. Not-found is surfaced as 404 instead
// of being folded into the generic update failure.
func (s Service) Edit(ctx context.Context, jokeID string, patch entities.JokePatch) (outcome Outcome) {
	defer s.guard("edit", MessageUpdateError, &outcome)
	logger := ResolveLogger(s.Logger)

	jokeID = strings.TrimSpace(jokeID)
	if jokeID == "" {
		return failure(http.StatusBadRequest, MessageInvalidJokeID, domainerrors.ErrInvalidRequest)
	}

	callCtx, cancel := s.outboundContext(ctx)
	defer cancel()

	updated, err := s.Submissions.UpdateJoke(callCtx, jokeID, patch)
	if err != nil {
		logger.Error("joke update failed",
			"event", "moderation_edit_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"error", err.Error(),
		)
		if errors.Is(err, domainerrors.ErrJokeNotFound) {
			return failure(http.StatusNotFound, MessageJokeNotFound, err)
		}
		return failure(http.StatusInternalServerError, MessageUpdateError, err)
	}

	logger.Info("joke updated",
		"event", "moderation_joke_updated",
		"module", moduleName,
		"layer", "application",
		"joke_id", jokeID,
		"empty_patch", patch.IsEmpty(),
	)
	return success(http.StatusOK, MessageUpdateSucceeded, updated)
}
