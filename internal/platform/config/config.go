package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"

	"gopkg.in/yaml.v3"
)

const (
	DefaultJWTSecret       = "secret"
	defaultModeratorEmail  = "admin@admin.com"
	defaultModeratorHash   = "$2b$10$Jff9yfGOCPxprurt5Dbfj.bArM3gKo2gsNbdotFV58ug7GQRE0QO."
	defaultSubmitJokesURL  = "http://submit-jokes-microservice-url/api/jokes"
	defaultDeliverJokesURL = "http://deliver-jokes-microservice-url/api/jokes"
)

const (
	CredentialSourceStatic   = "static"
	CredentialSourcePostgres = "postgres"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	DBMigrate   bool

	JWTSecret string
	TokenTTL  time.Duration

	SubmitJokesURL  string
	DeliverJokesURL string
	OutboundTimeout time.Duration

	CredentialSource string
	ModeratorsFile   string
	Moderators       []entities.ModeratorCredential

	ReconcileInterval    time.Duration
	ReconcileBatchSize   int
	DeliveryMaxAttempts  int
	DeliveryRetryBackoff time.Duration

	TracingEnabled bool
	TracingOutput  string
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "moderate-jokes"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "9092"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = DefaultJWTSecret
	}

	cfg := Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		DBMigrate:   envBool("DB_MIGRATE", true),

		JWTSecret: secret,
		TokenTTL:  envDuration("TOKEN_TTL", 24*time.Hour),

		SubmitJokesURL:  envString("SUBMIT_JOKES_URL", defaultSubmitJokesURL),
		DeliverJokesURL: envString("DELIVER_JOKES_URL", defaultDeliverJokesURL),
		OutboundTimeout: envDuration("OUTBOUND_TIMEOUT", 10*time.Second),

		CredentialSource: strings.ToLower(envString("CREDENTIAL_SOURCE", CredentialSourceStatic)),
		ModeratorsFile:   strings.TrimSpace(os.Getenv("MODERATORS_FILE")),

		ReconcileInterval:    envDuration("RECONCILE_INTERVAL", 30*time.Second),
		ReconcileBatchSize:   envInt("RECONCILE_BATCH_SIZE", 50),
		DeliveryMaxAttempts:  envInt("DELIVERY_MAX_ATTEMPTS", 8),
		DeliveryRetryBackoff: envDuration("DELIVERY_RETRY_BACKOFF", 30*time.Second),

		TracingEnabled: envBool("TRACING_ENABLED", false),
		TracingOutput:  os.Getenv("TRACING_OUTPUT"),
	}

	switch cfg.CredentialSource {
	case CredentialSourceStatic, CredentialSourcePostgres:
	default:
		return Config{}, fmt.Errorf("unsupported CREDENTIAL_SOURCE %q", cfg.CredentialSource)
	}
	if cfg.CredentialSource == CredentialSourcePostgres && cfg.PostgresDSN == "" {
		return Config{}, errors.New("CREDENTIAL_SOURCE=postgres requires POSTGRES_DSN")
	}

	moderators, err := loadModerators(cfg.ModeratorsFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Moderators = moderators
	return cfg, nil
}

// UsesDefaultSecret reports whether tokens are signed with the built-in
// development secret.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

type moderatorsFile struct {
	Moderators []entities.ModeratorCredential `yaml:"moderators"`
}

// loadModerators reads MODERATORS_FILE when set, otherwise the single
// MODERATOR_EMAIL / MODERATOR_PASSWORD_HASH pair.
func loadModerators(path string) ([]entities.ModeratorCredential, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read moderators file: %w", err)
		}
		return ParseModerators(raw)
	}
	return []entities.ModeratorCredential{{
		Email:        envString("MODERATOR_EMAIL", defaultModeratorEmail),
		PasswordHash: envString("MODERATOR_PASSWORD_HASH", defaultModeratorHash),
	}}, nil
}

// ParseModerators decodes a moderators YAML document. Emails must be unique
// and every entry needs a hash.
func ParseModerators(raw []byte) ([]entities.ModeratorCredential, error) {
	var doc moderatorsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse moderators file: %w", err)
	}
	if len(doc.Moderators) == 0 {
		return nil, errors.New("moderators file lists no moderators")
	}
	seen := make(map[string]struct{}, len(doc.Moderators))
	out := make([]entities.ModeratorCredential, 0, len(doc.Moderators))
	for i, moderator := range doc.Moderators {
		moderator.Email = strings.TrimSpace(moderator.Email)
		moderator.PasswordHash = strings.TrimSpace(moderator.PasswordHash)
		if moderator.Email == "" || moderator.PasswordHash == "" {
			return nil, fmt.Errorf("moderator entry %d needs email and password_hash", i)
		}
		if _, dup := seen[moderator.Email]; dup {
			return nil, fmt.Errorf("duplicate moderator email %q", moderator.Email)
		}
		seen[moderator.Email] = struct{}{}
		out = append(out, moderator)
	}
	return out, nil
}

// MarshalModerators renders credentials in the MODERATORS_FILE format.
func MarshalModerators(moderators []entities.ModeratorCredential) ([]byte, error) {
	return yaml.Marshal(moderatorsFile{Moderators: moderators})
}

func envString(name string, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
