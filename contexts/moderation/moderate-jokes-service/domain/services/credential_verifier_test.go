package services

import (
	"context"
	"errors"
	"testing"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
)

type mapCredentials map[string]entities.ModeratorCredential

func (m mapCredentials) LookupCredential(_ context.Context, email string) (entities.ModeratorCredential, bool, error) {
	credential, ok := m[email]
	return credential, ok, nil
}

type plainComparer struct {
	calls int
	err   error
}

func (c *plainComparer) Compare(hash string, plaintext string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return hash == "hash:"+plaintext, nil
}

func TestCredentialVerifier(t *testing.T) {
	credentials := mapCredentials{"admin@admin.com": {Email: "admin@admin.com", PasswordHash: "hash:admin123"}}
	comparer := &plainComparer{}
	verifier := CredentialVerifier{Credentials: credentials, Hasher: comparer}

	if ok, err := verifier.Verify(context.Background(), "admin@admin.com", "admin123"); err != nil || !ok {
		t.Fatalf("expected valid credentials, ok=%v err=%v", ok, err)
	}
	if ok, err := verifier.Verify(context.Background(), "admin@admin.com", "nope"); err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
	calls := comparer.calls
	if ok, err := verifier.Verify(context.Background(), "ADMIN@admin.com", "admin123"); err != nil || ok {
		t.Fatalf("email match must be exact, ok=%v err=%v", ok, err)
	}
	if comparer.calls != calls {
		t.Fatalf("unknown email reached the hasher")
	}
}

func TestCredentialVerifierHasherFailure(t *testing.T) {
	credentials := mapCredentials{"admin@admin.com": {Email: "admin@admin.com", PasswordHash: "x"}}
	verifier := CredentialVerifier{Credentials: credentials, Hasher: &plainComparer{err: errors.New("bad hash")}}
	if _, err := verifier.Verify(context.Background(), "admin@admin.com", "admin123"); err == nil {
		t.Fatalf("expected hasher failure to surface")
	}
}
