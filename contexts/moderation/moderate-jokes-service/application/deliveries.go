package application

import (
	"context"
	"net/http"
	"strings"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
)

const defaultIntentListLimit = 100

// ListDeliveryIntents exposes approved-but-undelivered markers to operators.
func (s Service) ListDeliveryIntents(ctx context.Context, statusRaw string, limit int) (outcome Outcome) {
	defer s.guard("list_delivery_intents", MessageIntentsError, &outcome)

	statusRaw = strings.TrimSpace(strings.ToLower(statusRaw))
	status := entities.DeliveryIntentPending
	if statusRaw != "" {
		parsed, ok := entities.ParseDeliveryIntentStatus(statusRaw)
		if !ok {
			return failure(http.StatusBadRequest, MessageInvalidIntentState, domainerrors.ErrInvalidRequest)
		}
		status = parsed
	}
	if limit <= 0 || limit > defaultIntentListLimit {
		limit = defaultIntentListLimit
	}
	if s.Intents == nil {
		return success(http.StatusOK, MessageIntentsRetrieved, []entities.DeliveryIntent{})
	}

	items, err := s.Intents.ListDeliveryIntents(ctx, status, limit)
	if err != nil {
		ResolveLogger(s.Logger).Error("list delivery intents failed",
			"event", "moderation_list_intents_failed",
			"module", moduleName,
			"layer", "application",
			"status", string(status),
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessageIntentsError, err)
	}
	if items == nil {
		items = []entities.DeliveryIntent{}
	}
	return success(http.StatusOK, MessageIntentsRetrieved, items)
}
