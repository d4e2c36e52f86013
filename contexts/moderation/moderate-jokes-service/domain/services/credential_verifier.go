package services

import (
	"context"
	"fmt"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
)

// CredentialLookup and HashComparer mirror the module ports so the domain
// layer stays free of port imports.
type CredentialLookup interface {
	LookupCredential(ctx context.Context, email string) (entities.ModeratorCredential, bool, error)
}

type HashComparer interface {
	Compare(hash string, plaintext string) (bool, error)
}

// CredentialVerifier checks an email/password pair against the known
// moderator set. Unknown emails return false without touching the hasher.
type CredentialVerifier struct {
	Credentials CredentialLookup
	Hasher      HashComparer
}

func (v CredentialVerifier) Verify(ctx context.Context, email string, password string) (bool, error) {
	if v.Credentials == nil || v.Hasher == nil {
		return false, fmt.Errorf("credential verifier is not configured")
	}
	if email == "" {
		return false, nil
	}

	credential, found, err := v.Credentials.LookupCredential(ctx, email)
	if err != nil {
		return false, fmt.Errorf("lookup moderator credential: %w", err)
	}
	if !found || credential.Email != email {
		return false, nil
	}

	ok, err := v.Hasher.Compare(credential.PasswordHash, password)
	if err != nil {
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return ok, nil
}
