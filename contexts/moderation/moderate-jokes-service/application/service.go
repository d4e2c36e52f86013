package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/services"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"

	"go.opentelemetry.io/otel"
)

const (
	moduleName             = "moderation/moderate-jokes-service"
	defaultOutboundTimeout = 10 * time.Second
	sourceService          = "moderate-jokes-service"
)

var tracer = otel.Tracer("jokemoderation/moderate-jokes-service")

// Service is the moderation orchestrator. It holds no per-request state; all
// durable state lives in the submission and delivery stores.
type Service struct {
	Verifier        services.CredentialVerifier
	Tokens          ports.TokenIssuer
	Submissions     ports.SubmissionStore
	Deliveries      ports.DeliveryStore
	Intents         ports.DeliveryIntentRepository
	Approvals       ports.ApprovalLocker
	Publisher       ports.EventPublisher
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	OutboundTimeout time.Duration
	Logger          *slog.Logger
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) outboundTimeout() time.Duration {
	if s.OutboundTimeout <= 0 {
		return defaultOutboundTimeout
	}
	return s.OutboundTimeout
}

// outboundContext bounds a single store call. A deadline hit is reported by
// the store client as an ordinary fault.
func (s Service) outboundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.outboundTimeout())
}

// guard converts a panic escaping an operation into its 500 envelope.
// It must be deferred directly so recover sees the panic.
func (s Service) guard(operation string, message string, outcome *Outcome) {
	recovered := recover()
	if recovered == nil {
		return
	}
	err := fmt.Errorf("panic in %s: %v", operation, recovered)
	ResolveLogger(s.Logger).Error("moderation operation panicked",
		"event", "moderation_operation_panic",
		"module", moduleName,
		"layer", "application",
		"operation", operation,
		"error", err.Error(),
	)
	*outcome = failure(http.StatusInternalServerError, message, err)
}

func (s Service) newID(ctx context.Context) (string, error) {
	if s.IDGenerator == nil {
		return fmt.Sprintf("%d", s.now().UnixNano()), nil
	}
	return s.IDGenerator.NewID(ctx)
}

// publishEvent is best effort: a bus failure is logged and never changes the
// outcome of the operation that produced the event.
func (s Service) publishEvent(ctx context.Context, topic string, eventType string, jokeID string, payload any) {
	if s.Publisher == nil {
		return
	}
	logger := ResolveLogger(s.Logger)
	eventID, err := s.newID(ctx)
	if err != nil {
		logger.Warn("event id generation failed",
			"event", "moderation_event_id_failed",
			"module", moduleName,
			"layer", "application",
			"topic", topic,
			"error", err.Error(),
		)
		return
	}
	envelope := ports.EventEnvelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  sourceService,
		OccurredAtUTC:  s.now(),
		CorrelationID:  jokeID,
		EntityType:     "joke",
		EntityID:       jokeID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	if err := s.Publisher.Publish(context.WithoutCancel(ctx), topic, envelope); err != nil {
		logger.Warn("moderation event publish failed",
			"event", "moderation_event_publish_failed",
			"module", moduleName,
			"layer", "application",
			"topic", topic,
			"joke_id", jokeID,
			"error", err.Error(),
		)
	}
}

// ResolveLogger returns logger, or slog.Default when it is nil.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
