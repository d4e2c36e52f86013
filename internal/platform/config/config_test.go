package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{
		"SERVICE_NAME", "HTTP_PORT", "PORT", "JWT_SECRET", "TOKEN_TTL", "MODERATORS_FILE",
		"MODERATOR_EMAIL", "MODERATOR_PASSWORD_HASH", "CREDENTIAL_SOURCE", "OUTBOUND_TIMEOUT",
	} {
		t.Setenv(name, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9092" {
		t.Fatalf("expected default port 9092, got %s", cfg.HTTPPort)
	}
	if !cfg.UsesDefaultSecret() {
		t.Fatalf("expected default secret")
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.OutboundTimeout != 10*time.Second {
		t.Fatalf("unexpected durations: ttl=%s timeout=%s", cfg.TokenTTL, cfg.OutboundTimeout)
	}
	if len(cfg.Moderators) != 1 || cfg.Moderators[0].Email != "admin@admin.com" {
		t.Fatalf("unexpected moderators: %+v", cfg.Moderators)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("RECONCILE_BATCH_SIZE", "7")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("TRACING_ENABLED", "yes")
	t.Setenv("CREDENTIAL_SOURCE", "")
	t.Setenv("MODERATORS_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8081" || cfg.UsesDefaultSecret() || cfg.TokenTTL != 90*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ReconcileBatchSize != 7 || cfg.DeliveryMaxAttempts != 8 {
		t.Fatalf("unexpected int settings: batch=%d attempts=%d", cfg.ReconcileBatchSize, cfg.DeliveryMaxAttempts)
	}
	if !cfg.TracingEnabled {
		t.Fatalf("expected tracing enabled")
	}
}

func TestLoadRejectsPostgresCredentialsWithoutDSN(t *testing.T) {
	t.Setenv("CREDENTIAL_SOURCE", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadReadsModeratorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderators.yaml")
	body := "moderators:\n  - email: a@example.com\n    password_hash: hash-a\n  - email: b@example.com\n    password_hash: hash-b\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MODERATORS_FILE", path)
	t.Setenv("CREDENTIAL_SOURCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Moderators) != 2 || cfg.Moderators[1].PasswordHash != "hash-b" {
		t.Fatalf("unexpected moderators: %+v", cfg.Moderators)
	}
}

func TestParseModeratorsRejectsDuplicates(t *testing.T) {
	_, err := ParseModerators([]byte("moderators:\n  - email: a@example.com\n    password_hash: x\n  - email: a@example.com\n    password_hash: y\n"))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestMarshalModeratorsRoundTrips(t *testing.T) {
	raw, err := MarshalModerators([]entities.ModeratorCredential{{Email: "a@example.com", PasswordHash: "h"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseModerators(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Email != "a@example.com" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}
