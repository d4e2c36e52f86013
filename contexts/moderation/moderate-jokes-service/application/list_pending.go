package application

import (
	"context"
	"net/http"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
)

func (s Service) ListPendingForReview(ctx context.Context) (outcome Outcome) {
	defer s.guard("list_pending", MessagePendingError, &outcome)

	callCtx, cancel := s.outboundContext(ctx)
	defer cancel()

	items, err := s.Submissions.ListPending(callCtx)
	if err != nil {
		ResolveLogger(s.Logger).Error("list pending jokes failed",
			"event", "moderation_list_pending_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessagePendingError, err)
	}
	if items == nil {
		items = []entities.PendingJoke{}
	}
	return success(http.StatusOK, MessagePendingRetrieved, items)
}
