package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainerrors "jokemoderation/contexts/moderation/moderate-jokes-service/domain/errors"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer mints HS256 session tokens carrying the moderator email.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  ports.Clock
}

func NewJWTIssuer(secret string, ttl time.Duration, clock ports.Clock) (*JWTIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt signing secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

func (i *JWTIssuer) Issue(ctx context.Context, subject string) (string, error) {
	now := i.now()
	claims := sessionClaims{
		Email: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate returns the token subject. Errors wrap ErrTokenExpired,
// ErrTokenMalformed or ErrTokenVerificationFailed.
func (i *JWTIssuer) Validate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domainerrors.ErrTokenMalformed
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", classifyTokenError(err)
	}
	subject := claims.Email
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domainerrors.ErrTokenVerificationFailed)
	}
	return subject, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domainerrors.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", domainerrors.ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %w", domainerrors.ErrTokenVerificationFailed, err)
	}
}

func (i *JWTIssuer) now() time.Time {
	if i.clock == nil {
		return time.Now().UTC()
	}
	return i.clock.Now().UTC()
}

var _ ports.TokenIssuer = (*JWTIssuer)(nil)
