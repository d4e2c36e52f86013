package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"jokemoderation/contexts/moderation/moderate-jokes-service/application"
	moderationerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	moderationhttp "jokemoderation/contexts/moderation/moderate-jokes-service/transport/http"
)

const (
	messageTokenExpired            = "Token has expired"
	messageTokenInvalid            = "Invalid Token"
	messageTokenVerificationFailed = "Token verification failed"
)

func writeModerationEnvelope(w http.ResponseWriter, envelope moderationhttp.Envelope) {
	writeJSON(w, envelope.Code, envelope)
}

func writeModerationError(w http.ResponseWriter, status int, message string) {
	writeModerationEnvelope(w, moderationhttp.Envelope{Code: status, Message: message})
}

func bearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func tokenFailureMessage(err error) string {
	switch {
	case errors.Is(err, moderationerrors.ErrTokenExpired):
		return messageTokenExpired
	case errors.Is(err, moderationerrors.ErrTokenMalformed):
		return messageTokenInvalid
	default:
		return messageTokenVerificationFailed
	}
}

// requireModerator rejects the request before it reaches the module unless
// it carries a valid bearer token.
func (s *Server) requireModerator(w http.ResponseWriter, r *http.Request) (string, bool) {
	moderator, err := s.moderation.Handler.AuthorizeHandler(r.Context(), bearerToken(r))
	if err != nil {
		s.logger.Warn("moderation request rejected",
			"event", "moderation_request_unauthorized",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeModerationError(w, http.StatusUnauthorized, tokenFailureMessage(err))
		return "", false
	}
	return moderator, true
}

func (s *Server) handleModerationLogin(w http.ResponseWriter, r *http.Request) {
	var req moderationhttp.LoginRequest
	if !decodeJSON(w, r, &req, writeModerationError) {
		return
	}
	writeModerationEnvelope(w, s.moderation.Handler.LoginHandler(r.Context(), req))
}

func (s *Server) handleModerationPending(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireModerator(w, r); !ok {
		return
	}
	writeModerationEnvelope(w, s.moderation.Handler.ListPendingHandler(r.Context()))
}

func (s *Server) handleModerationUpdate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireModerator(w, r); !ok {
		return
	}
	var req moderationhttp.UpdateJokeRequest
	if !decodeJSON(w, r, &req, func(w http.ResponseWriter, status int, message string) {
		writeModerationEnvelope(w, moderationhttp.Envelope{
			Code:    status,
			Message: application.MessageUpdateError,
			Error:   message,
		})
	}) {
		return
	}
	writeModerationEnvelope(w, s.moderation.Handler.UpdateJokeHandler(r.Context(), r.PathValue("id"), req))
}

func (s *Server) handleModerationApprove(w http.ResponseWriter, r *http.Request) {
	moderator, ok := s.requireModerator(w, r)
	if !ok {
		return
	}
	s.logger.Info("approve requested",
		"event", "moderation_approve_requested",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"moderator", moderator,
		"joke_id", r.PathValue("id"),
	)
	writeModerationEnvelope(w, s.moderation.Handler.ApproveHandler(r.Context(), r.PathValue("id")))
}

func (s *Server) handleModerationReject(w http.ResponseWriter, r *http.Request) {
	moderator, ok := s.requireModerator(w, r)
	if !ok {
		return
	}
	s.logger.Info("reject requested",
		"event", "moderation_reject_requested",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"moderator", moderator,
		"joke_id", r.PathValue("id"),
	)
	writeModerationEnvelope(w, s.moderation.Handler.RejectHandler(r.Context(), r.PathValue("id")))
}

func (s *Server) handleModerationDeliveries(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireModerator(w, r); !ok {
		return
	}
	query := r.URL.Query()
	writeModerationEnvelope(w, s.moderation.Handler.ListDeliveriesHandler(r.Context(), query.Get("status"), query.Get("limit")))
}
