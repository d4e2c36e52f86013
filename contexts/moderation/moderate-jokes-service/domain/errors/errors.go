package errors

import "errors"

var (
	ErrInvalidRequest           = errors.New("invalid request")
	ErrJokeNotFound             = errors.New("joke not found")
	ErrJokeNotPending           = errors.New("joke is not pending")
	ErrApprovalInProgress       = errors.New("joke approval already in progress")
	ErrUpstreamUnavailable      = errors.New("submission store unavailable")
	ErrDeliveryUnavailable      = errors.New("delivery store unavailable")
	ErrDeliveryRejected         = errors.New("delivery store rejected joke")
	ErrTokenExpired             = errors.New("token has expired")
	ErrTokenMalformed           = errors.New("invalid token")
	ErrTokenVerificationFailed  = errors.New("token verification failed")
	ErrIntentNotFound           = errors.New("delivery intent not found")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
