package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	moderatejokes "jokemoderation/contexts/moderation/moderate-jokes-service"
	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/auth"
	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/deliverclient"
	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/memory"
	postgresadapter "jokemoderation/contexts/moderation/moderate-jokes-service/adapters/postgres"
	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/submitclient"
	workerapp "jokemoderation/contexts/moderation/moderate-jokes-service/application/workers"
	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
	"jokemoderation/internal/platform/config"
	"jokemoderation/internal/platform/db"
	"jokemoderation/internal/platform/httpserver"
	"jokemoderation/internal/platform/messaging"
	"jokemoderation/internal/platform/tracing"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

type APIApp struct {
	server       *httpserver.Server
	reconciler   workerapp.DeliveryReconciler
	pollIntents  bool
	pollInterval time.Duration
	postgres     *db.Postgres
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	reconciler   workerapp.DeliveryReconciler
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	initTracing(cfg, logger)
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET not set; signing tokens with the development secret",
			"event", "bootstrap_default_jwt_secret",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	localStore := memory.NewStore(nil, cfg.Moderators, logger)
	var (
		credentials ports.CredentialStore          = localStore
		intents     ports.DeliveryIntentRepository = localStore
		pg          *db.Postgres
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN, db.Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute, Logger: logger})
		if err != nil {
			return nil, err
		}
		repo, err := prepareRepository(pg, cfg, logger)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		intents = repo
		if cfg.CredentialSource == config.CredentialSourcePostgres {
			credentials = repo
		}
	} else {
		logger.Warn("POSTGRES_DSN not set; delivery intents are kept in memory",
			"event", "bootstrap_memory_intents",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	tokens, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL, postgresadapter.SystemClock{})
	if err != nil {
		return nil, err
	}
	bus := messaging.NewBus(logger)

	module := moderatejokes.NewModule(moderatejokes.Dependencies{
		Credentials:     credentials,
		Hasher:          auth.BcryptHasher{},
		Tokens:          tokens,
		Submissions:     submitclient.New(cfg.SubmitJokesURL, cfg.OutboundTimeout, logger),
		Deliveries:      deliverclient.New(cfg.DeliverJokesURL, cfg.OutboundTimeout, logger),
		Intents:         intents,
		Approvals:       memory.NewApprovalLocks(),
		Publisher:       bus,
		Subscriber:      bus,
		Clock:           postgresadapter.SystemClock{},
		IDGenerator:     postgresadapter.UUIDGenerator{},
		OutboundTimeout: cfg.OutboundTimeout,
		Reconcile: moderatejokes.ReconcileSettings{
			BatchSize:    cfg.ReconcileBatchSize,
			MaxAttempts:  cfg.DeliveryMaxAttempts,
			RetryBackoff: cfg.DeliveryRetryBackoff,
		},
		Logger: logger,
	})
	module.Reconciler.ConsumerGroup = "moderate-jokes-api-reconciler"

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:       server,
		reconciler:   module.Reconciler,
		pollIntents:  pg == nil,
		pollInterval: cfg.ReconcileInterval,
		postgres:     pg,
		logger:       logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	initTracing(cfg, logger)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, db.Options{MaxOpenConns: 4, MaxIdleConns: 2, Logger: logger})
	if err != nil {
		return nil, err
	}
	repo, err := prepareRepository(pg, cfg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		reconciler: workerapp.DeliveryReconciler{
			Intents:      repo,
			Deliveries:   deliverclient.New(cfg.DeliverJokesURL, cfg.OutboundTimeout, logger),
			Clock:        postgresadapter.SystemClock{},
			IDGenerator:  postgresadapter.UUIDGenerator{},
			BatchSize:    cfg.ReconcileBatchSize,
			MaxAttempts:  cfg.DeliveryMaxAttempts,
			RetryBackoff: cfg.DeliveryRetryBackoff,
			CallTimeout:  cfg.OutboundTimeout,
			Logger:       logger,
		},
		pollInterval: cfg.ReconcileInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if err := a.reconciler.Start(ctx); err != nil {
		return err
	}
	if a.pollIntents {
		go runReconcileLoop(ctx, a.reconciler, a.pollInterval, a.logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = tracing.Shutdown(shutdownCtx)
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := w.reconciler.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = tracing.Shutdown(shutdownCtx)
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// runReconcileLoop polls in-memory intents from the API process. Cycle
// errors are logged and the loop keeps going.
func runReconcileLoop(ctx context.Context, reconciler workerapp.DeliveryReconciler, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reconciler.RunOnce(ctx); err != nil {
				logger.Error("delivery reconcile cycle failed",
					"event", "bootstrap_reconcile_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func prepareRepository(pg *db.Postgres, cfg config.Config, logger *slog.Logger) (*postgresadapter.Repository, error) {
	repo := postgresadapter.NewRepository(pg.DB, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if cfg.DBMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.CredentialSource == config.CredentialSourcePostgres && cfg.ModeratorsFile != "" {
		for _, moderator := range cfg.Moderators {
			if err := repo.UpsertCredential(ctx, moderator); err != nil {
				return nil, err
			}
		}
	}
	return repo, nil
}

func initTracing(cfg config.Config, logger *slog.Logger) {
	if !cfg.TracingEnabled {
		return
	}
	if err := tracing.Init(cfg.ServiceName, serviceVersion, cfg.TracingOutput); err != nil {
		logger.Warn("tracing init failed",
			"event", "bootstrap_tracing_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":9092"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
