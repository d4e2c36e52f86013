package auth

import (
	"errors"
	"fmt"

	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher compares against bcrypt hashes. Cost only applies to Hash.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Compare(hash string, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password hash: %w", err)
	}
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

var _ ports.PasswordHasher = BcryptHasher{}
