package moderatejokesservice

import (
	"log/slog"
	"time"

	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/auth"
	httpadapter "jokemoderation/contexts/moderation/moderate-jokes-service/adapters/http"
	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/memory"
	"jokemoderation/contexts/moderation/moderate-jokes-service/application"
	"jokemoderation/contexts/moderation/moderate-jokes-service/application/workers"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/services"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
)

type Module struct {
	Handler    httpadapter.Handler
	Reconciler workers.DeliveryReconciler
	Store      *memory.Store
}

type Dependencies struct {
	Credentials     ports.CredentialStore
	Hasher          ports.PasswordHasher
	Tokens          ports.TokenIssuer
	Submissions     ports.SubmissionStore
	Deliveries      ports.DeliveryStore
	Intents         ports.DeliveryIntentRepository
	Approvals       ports.ApprovalLocker
	Publisher       ports.EventPublisher
	Subscriber      ports.EventSubscriber
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	OutboundTimeout time.Duration
	Reconcile       ReconcileSettings
	Logger          *slog.Logger
}

type ReconcileSettings struct {
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

func NewModule(deps Dependencies) Module {
	approvals := deps.Approvals
	if approvals == nil {
		approvals = memory.NewApprovalLocks()
	}
	service := application.Service{
		Verifier: services.CredentialVerifier{
			Credentials: deps.Credentials,
			Hasher:      deps.Hasher,
		},
		Tokens:          deps.Tokens,
		Submissions:     deps.Submissions,
		Deliveries:      deps.Deliveries,
		Intents:         deps.Intents,
		Approvals:       approvals,
		Publisher:       deps.Publisher,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		OutboundTimeout: deps.OutboundTimeout,
		Logger:          deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Reconciler: workers.DeliveryReconciler{
			Intents:      deps.Intents,
			Deliveries:   deps.Deliveries,
			Publisher:    deps.Publisher,
			Subscriber:   deps.Subscriber,
			Clock:        deps.Clock,
			IDGenerator:  deps.IDGenerator,
			BatchSize:    deps.Reconcile.BatchSize,
			MaxAttempts:  deps.Reconcile.MaxAttempts,
			RetryBackoff: deps.Reconcile.RetryBackoff,
			CallTimeout:  deps.OutboundTimeout,
			Logger:       deps.Logger,
		},
	}
}

// NewInMemoryModule wires every store to one memory.Store. tokens may be nil,
// in which case a JWT issuer with a fixed local secret is used.
func NewInMemoryModule(
	seed []entities.PendingJoke,
	credentials []entities.ModeratorCredential,
	tokens ports.TokenIssuer,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed, credentials, logger)
	if tokens == nil {
		issuer, err := auth.NewJWTIssuer("local-moderation-secret", 24*time.Hour, store)
		if err != nil {
			panic(err)
		}
		tokens = issuer
	}
	module := NewModule(Dependencies{
		Credentials: store,
		Hasher:      auth.BcryptHasher{},
		Tokens:      tokens,
		Submissions: store,
		Deliveries:  store,
		Intents:     store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
