package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/internal/shared/events"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type approvalResult struct {
	Approved   entities.PendingJoke
	Projection entities.DeliveredJoke
	Delivered  entities.DeliveredJoke
}

// Approve runs the two-phase transition:
// 1) mark the joke approved in the submission store
// 2) publish the projection to the delivery store.
// Phase 2 only starts after phase 1 returned successfully. A phase 2 failure
// leaves the joke approved upstream; a pending delivery intent is recorded so
// the reconciler can retry.
func (s Service) Approve(ctx context.Context, jokeID string) (outcome Outcome) {
	defer s.guard("approve", MessageApproveUnknown, &outcome)
	logger := ResolveLogger(s.Logger)

	jokeID = strings.TrimSpace(jokeID)
	if jokeID == "" {
		return failure(http.StatusBadRequest, MessageInvalidJokeID, domainerrors.ErrInvalidRequest)
	}

	if s.Approvals != nil {
		release, ok := s.Approvals.TryLock(jokeID)
		if !ok {
			logger.Warn("joke approval already running",
				"event", "moderation_approve_in_progress",
				"module", moduleName,
				"layer", "application",
				"joke_id", jokeID,
			)
			return failure(http.StatusConflict, MessageApprovalInProgress, domainerrors.ErrApprovalInProgress)
		}
		defer release()
	}

	ctx, span := tracer.Start(ctx, "moderation.approve",
		trace.WithAttributes(attribute.String("joke.id", jokeID)),
	)
	defer span.End()

	logger.Info("joke approval started",
		"event", "moderation_approve_started",
		"module", moduleName,
		"layer", "application",
		"joke_id", jokeID,
	)

	result, err := s.approveAndDeliver(ctx, jokeID)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		logger.Info("joke approved and delivered",
			"event", "moderation_approve_delivered",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"delivered_id", result.Delivered.JokeID,
		)
		s.publishEvent(ctx, events.TopicJokeDelivered, "joke.delivered", jokeID, map[string]string{
			"joke_id":      jokeID,
			"delivered_id": result.Delivered.JokeID,
		})
		return success(http.StatusCreated, MessageApproveSucceeded, result.Delivered)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	phase, _ := PhaseOf(err)
	span.SetAttributes(attribute.String("moderation.failed_phase", string(phase)))
	switch phase {
	case PhaseUpstreamApproval:
		logger.Error("joke approval failed upstream",
			"event", "moderation_approve_upstream_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"phase", string(phase),
			"error", err.Error(),
		)
		if errors.Is(err, domainerrors.ErrJokeNotPending) {
			return failure(http.StatusConflict, MessageJokeNotPending, err)
		}
		return failure(http.StatusInternalServerError, MessageApproveError, err)
	case PhaseDownstreamDelivery:
		logger.Error("joke approved upstream but delivery failed",
			"event", "moderation_approve_delivery_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"phase", string(phase),
			"error", err.Error(),
		)
		s.recordPendingDelivery(ctx, jokeID, result.Projection, err)
		return failure(http.StatusInternalServerError, MessageDeliverError, err)
	default:
		logger.Error("joke approval failed outside a known phase",
			"event", "moderation_approve_unattributed_failure",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessageApproveUnknown, err)
	}
}

// approveAndDeliver tags every failure with the phase whose call was in
// flight. Anything raised between phases stays untagged.
func (s Service) approveAndDeliver(ctx context.Context, jokeID string) (result approvalResult, err error) {
	var inFlight Phase
	defer func() {
		if recovered := recover(); recovered != nil {
			err = tagPhase(inFlight, fmt.Errorf("panic: %v", recovered))
		}
	}()

	inFlight = PhaseUpstreamApproval
	approved, err := s.markApproved(ctx, jokeID)
	if err != nil {
		return result, tagPhase(inFlight, err)
	}
	inFlight = ""

	if approved.JokeID != "" && approved.JokeID != jokeID {
		return result, fmt.Errorf("%w: approved joke %q returned for %q",
			domainerrors.ErrRepositoryInvariantBroke, approved.JokeID, jokeID)
	}
	if approved.JokeID == "" {
		approved.JokeID = jokeID
	}
	result.Approved = approved
	result.Projection = entities.ProjectForDelivery(approved)

	inFlight = PhaseDownstreamDelivery
	delivered, err := s.deliver(ctx, result.Projection)
	if err != nil {
		return result, tagPhase(inFlight, err)
	}
	result.Delivered = delivered
	return result, nil
}

func (s Service) markApproved(ctx context.Context, jokeID string) (entities.PendingJoke, error) {
	ctx, span := tracer.Start(ctx, "moderation.approve.upstream")
	defer span.End()

	callCtx, cancel := s.outboundContext(ctx)
	defer cancel()

	approved, err := s.Submissions.MarkApproved(callCtx, jokeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return approved, err
}

func (s Service) deliver(ctx context.Context, projection entities.DeliveredJoke) (entities.DeliveredJoke, error) {
	ctx, span := tracer.Start(ctx, "moderation.approve.delivery")
	defer span.End()

	callCtx, cancel := s.outboundContext(ctx)
	defer cancel()

	delivered, err := s.Deliveries.Publish(callCtx, projection)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return delivered, err
}

// recordPendingDelivery leaves a retryable marker for a joke that is approved
// upstream but missing downstream. It runs detached from the request context
// so a client disconnect does not lose the marker.
func (s Service) recordPendingDelivery(ctx context.Context, jokeID string, payload entities.DeliveredJoke, cause error) {
	logger := ResolveLogger(s.Logger)
	if s.Intents == nil {
		logger.Warn("no delivery intent store configured; joke left approved but undelivered",
			"event", "moderation_delivery_intent_skipped",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
		)
		return
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.outboundTimeout())
	defer cancel()

	intentID, err := s.newID(persistCtx)
	if err != nil {
		logger.Error("delivery intent id generation failed",
			"event", "moderation_delivery_intent_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"error", err.Error(),
		)
		return
	}

	intent, err := s.Intents.SavePendingDelivery(persistCtx,
		entities.NewPendingDelivery(intentID, jokeID, payload, cause.Error(), s.now()),
	)
	if err != nil {
		logger.Error("delivery intent persist failed; joke left approved but undelivered",
			"event", "moderation_delivery_intent_failed",
			"module", moduleName,
			"layer", "application",
			"joke_id", jokeID,
			"error", err.Error(),
		)
		return
	}

	logger.Warn("joke queued for delivery retry",
		"event", "moderation_delivery_intent_recorded",
		"module", moduleName,
		"layer", "application",
		"joke_id", jokeID,
		"intent_id", intent.IntentID,
		"attempts", intent.Attempts,
	)
	s.publishEvent(ctx, events.TopicDeliveryFailed, "joke.delivery_failed", jokeID, map[string]any{
		"joke_id":   jokeID,
		"intent_id": intent.IntentID,
		"attempts":  intent.Attempts,
		"error":     cause.Error(),
	})
}
