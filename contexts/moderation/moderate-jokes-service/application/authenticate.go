package application

import (
	"context"
	"net/http"
	"strings"
)

// Authenticate verifies moderator credentials and mints a session token.
// Wrong credentials are a normal 401 outcome, not an error path.
func (s Service) Authenticate(ctx context.Context, email string, password string) (outcome Outcome) {
	defer s.guard("authenticate", MessageLoginError, &outcome)
	logger := ResolveLogger(s.Logger)

	ok, err := s.Verifier.Verify(ctx, email, password)
	if err != nil {
		logger.Error("moderator login failed",
			"event", "moderation_login_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessageLoginError, err)
	}
	if !ok {
		logger.Warn("moderator login rejected",
			"event", "moderation_login_rejected",
			"module", moduleName,
			"layer", "application",
		)
		return Outcome{Code: http.StatusUnauthorized, Message: MessageUnauthorized}
	}

	token, err := s.Tokens.Issue(ctx, email)
	if err != nil {
		logger.Error("session token issue failed",
			"event", "moderation_token_issue_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return failure(http.StatusInternalServerError, MessageLoginError, err)
	}

	logger.Info("moderator logged in",
		"event", "moderation_login_succeeded",
		"module", moduleName,
		"layer", "application",
		"moderator", email,
	)
	return success(http.StatusOK, MessageLoginSucceeded, LoginResult{Token: token})
}

// ResolveModerator validates a bearer token and returns the moderator email.
// The error is one of ErrTokenExpired, ErrTokenMalformed or
// ErrTokenVerificationFailed.
func (s Service) ResolveModerator(ctx context.Context, token string) (string, error) {
	subject, err := s.Tokens.Validate(ctx, strings.TrimSpace(token))
	if err != nil {
		ResolveLogger(s.Logger).Debug("bearer token rejected",
			"event", "moderation_token_rejected",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return "", err
	}
	return subject, nil
}
